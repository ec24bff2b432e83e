package main

import (
	"os"

	"github.com/birkolabs/vitrin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
