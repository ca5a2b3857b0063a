// Command askeed is the CLI entrypoint for the askee core trust and
// accounting kernel. It does not open a network listener; every subcommand
// operates on a locally-constructed in-process Core.
package main

import "github.com/bioduds/askee/internal/cli"

func main() {
	cli.Execute()
}
