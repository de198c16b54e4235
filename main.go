package main

import (
	"os"

	"github.com/Bryant005/NerdsMedia/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
