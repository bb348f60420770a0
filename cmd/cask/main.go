// Package main provides the entry point for the cask CLI.
package main

import (
	"os"

	"github.com/caskhq/cask/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
