// Package main is the entry point for the podcast-mirror server.
package main

import (
	"os"

	"github.com/donaldgifford/podcast-mirror/cmd/podcast-mirror/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
