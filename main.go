package main

import (
	"os"

	"github.com/matrixise/liquidation-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
