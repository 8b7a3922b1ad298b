// Package main provides the entry point for the pathdex CLI.
package main

import (
	"os"

	"github.com/pathdex/pathdex/cmd/pathdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
