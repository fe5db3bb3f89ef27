package main

import (
	"fmt"
	"os"

	"github.com/okian/tcd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tcdctl: %v\n", err)
		os.Exit(1)
	}
}
