package main

import (
	"errors"
	"os"

	"github.com/named-data/kite/fw/cmd"
)

func main() {
	if err := cmd.CmdKite.Execute(); err != nil {
		if errors.Is(err, cmd.ErrScenario) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
