// Package main is the entry point for the querydeck CLI.
// It runs the analytics query relay and the terminal dashboard built on top of it.
package main

import (
	"querydeck/cli/cmd"
)

// main is the entry point for the querydeck CLI application.
func main() {
	cmd.Execute()
}
