// nestd is the sheet-nesting worker. It turns flat-pattern DXF outlines
// into deterministic multi-sheet cut layouts, either continuously as a
// queue-driven worker (nestd serve) or as a one-shot local run
// (nestd run).
//
// Build:
//
//	go build -o nestd ./cmd/nestd
package main

import (
	"os"

	"github.com/sheetfab/nestd/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
