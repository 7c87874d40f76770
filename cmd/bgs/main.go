package main

import (
	"os"

	"github.com/hal2001/BatchGetSymbols/cmd/bgs/commands"
)

// main is the entry point for the bgs CLI
// ⭐ single CLI entry point: go run ./cmd/bgs [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
