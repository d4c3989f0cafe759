package main

import (
	"os"

	"github.com/crewbase/crewbase/cmd/crewctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
