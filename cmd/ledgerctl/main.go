package main

import (
	"os"

	"github.com/carson-networks/ledger-server/cmd/ledgerctl/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
