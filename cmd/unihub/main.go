// Package main provides the unihub command line client.
package main

import (
	"fmt"
	"os"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "unihub"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
