package main

import (
	"os"

	"github.com/lophius/screenkeep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
