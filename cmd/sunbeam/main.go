// Package main is the entry point for the sunbeam application.
package main

import (
	"os"

	"github.com/sunbeam-telemetry/sunbeam/cmd/sunbeam/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
