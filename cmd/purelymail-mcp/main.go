package main

import (
	"os"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
)

func main() {
	common.LoadVersionFromFile()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
