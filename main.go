package main

import (
	"os"

	"github.com/bimmerbailey/quell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
