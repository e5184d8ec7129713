// Package main is the entry point for the kqlified CLI tool.
package main

import (
	"os"

	"github.com/realnamesareboring/KQLified/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
