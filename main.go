// main is the entry point for the mosaic CLI.
package main

import (
	"github.com/flowmosaic/mosaic/cmd"
	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseCaching()
	if err != nil {
		contract.LogFatal("Cannot run mosaic", err)
	}
}
