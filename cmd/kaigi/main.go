package main

import (
	"os"

	"github.com/kaigi-ai/kaigi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
