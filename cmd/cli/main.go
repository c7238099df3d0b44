// Package main is the entry point for the tripcost CLI.
package main

import (
	"os"

	"tripcost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
