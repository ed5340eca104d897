package main

import (
	"os"

	"github.com/kiraproject/fs-recommender/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
