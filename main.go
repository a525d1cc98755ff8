package main

import (
	"os"

	"github.com/prepia/tutor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
