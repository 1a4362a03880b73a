// Package main is the entry point for the xmlstack CLI.
package main

import (
	"os"

	"github.com/prescod/the-xml-document-stack/cmd/xmlstack/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
