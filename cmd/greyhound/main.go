package main

import (
	"os"

	"github.com/rustyeddy/greyhound/cmd/greyhound/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
