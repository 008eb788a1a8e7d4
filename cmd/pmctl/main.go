// Package main is the entry point for the pmctl CLI.
package main

import "github.com/donaldgifford/podcast-mirror/cmd/pmctl/cmd"

func main() {
	cmd.Execute()
}
