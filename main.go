// main.go - Entry point for llmchat, a terminal client for the LLM chat backend.

package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
