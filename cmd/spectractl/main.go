// Package main is the entry point for the spectractl admin tool.
package main

import (
	"os"

	"github.com/spectraops/spectraops/cmd/spectractl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
