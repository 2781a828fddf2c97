// Package main is the entry point for the dance practice player.
//
// Usage:
//
//	dancepractice [flags]                 open the player window
//	dancepractice generate [flags]        print a playlist without playing it
//	dancepractice presets list|show|delete
//
// Build:
//
//	go build -o build/dancepractice ./cmd
package main

import (
	"fmt"
	"os"

	"github.com/tejashwikalptaru/dancepractice/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
