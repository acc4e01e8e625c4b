package main

import (
	"os"

	"github.com/cjeanneret/emecwheel/internal/debug"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		debug.Error(err)
		os.Exit(1)
	}
}
