// Package main is the entry point for the splitledger CLI.
package main

import (
	"os"

	"github.com/mmynk/splitledger/cmd/splitledger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
