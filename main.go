package main

import (
	"os"

	"assetpipe/internal/cli"
)

// Set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
