// Package main provides the entry point for the notedex CLI.
package main

import (
	"os"

	"github.com/fernvale/notedex/cmd/notedex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
