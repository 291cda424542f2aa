// Package main is the entry point for the swapdesk service and CLI.
package main

import (
	"os"

	"swapdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
