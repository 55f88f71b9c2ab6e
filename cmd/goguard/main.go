// Package main is the entry point for the goguard binary.
package main

import (
	"fmt"
	"os"

	"github.com/MrEthical07/goGuard/cmd/goguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
