// Command cadencio is the local money ledger and obligation planner.
package main

import (
	"os"

	"github.com/cadencio-app/cadencio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
