// ABOUTME: Entry point for the leafdoctor CLI
// ABOUTME: Command-line client for diagnosing leaf photos and pricing treatments

package main

import (
	"fmt"
	"os"

	"github.com/agrisense/leafdoctor/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
