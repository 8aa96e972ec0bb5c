// Package main is the entry point for the Perfkit local performance-data
// collection agent.
package main

import (
	"github.com/perfkit/agent/cmd"
	_ "github.com/perfkit/agent/plugins" // trigger built-in source kind registration
)

func main() {
	cmd.Execute()
}
