package main

import (
	"os"

	"github.com/merittools/aktiva-client/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
