// Command rewardstore inspects and maintains a rewards publisher info
// database.
package main

import (
	"os"

	"github.com/roach88/rewardstore/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
