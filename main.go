package main

import (
	"fmt"
	"os"

	"github.com/thiagokokada/plastic-go/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "plastic-go: %v\n", err)
		os.Exit(1)
	}
}
