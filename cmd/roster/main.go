// Command roster runs the team roster service and its maintenance commands.
package main

import (
	"os"

	"github.com/avissapr/roster/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
