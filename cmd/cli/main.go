// Package main is the entry point for the lineagehub CLI binary.
package main

import (
	"os"

	cli "lineagehub/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
