// Package conv holds checked integer conversions for the fixed-width fields
// of the catalog format and the index's u32 node slots.
package conv
