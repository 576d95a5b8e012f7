// Package sysmem reports free host memory as a resource.Probe.
//
// A host has a single memory pool. It is reported as auxiliary memory;
// primary memory always reads as zero, so the matcher's headroom check and
// index sizing both run against what the host can actually spare.
package sysmem
