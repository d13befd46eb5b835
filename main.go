package main

import (
	"os"

	"github.com/brg2/OpenEVT/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
