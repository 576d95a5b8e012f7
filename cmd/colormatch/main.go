// Package main provides the colormatch CLI tool.
//
// Usage:
//
//	colormatch [flags] <command> [args]
//
// Commands:
//
//	encode   - Convert a JSON colour list into a binary catalog
//	inspect  - Show a catalog's header and records
//	match    - Find the closest catalog colour to a reading
//	verify   - Check index answers against a brute-force scan
//
// Configuration:
//
//	Settings are read from a YAML file (--config). Flags override it.
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/colormatch/cmd/colormatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
