package main

import (
	"os"

	"csv-import/internal/cli"
)

// Standalone status API; same as `csvimport serve`.
func main() {
	if err := cli.Serve(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
