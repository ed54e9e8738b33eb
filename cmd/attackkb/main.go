package main

import (
	"os"

	"github.com/mark-chris/attackkb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
