// Package main is the entry point for the ordersense CLI binary.
package main

import (
	"os"

	cli "ordersense/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
