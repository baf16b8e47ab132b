// Package main is the entry point for the sloth CLI.
package main

import "sloth.dev/pkg/sloth/cmd"

func main() {
	cmd.Execute()
}
