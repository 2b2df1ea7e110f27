// Command landmark manages offline field data from the command line.
package main

import (
	"os"

	"github.com/mesh-intelligence/landmark/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
