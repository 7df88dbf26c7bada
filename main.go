package main

import (
	"os"

	"github.com/traceops/capfetch/cmd"
	"github.com/traceops/capfetch/internal"
)

var logger = internal.GetLogger("capfetch_main")

func main() {
	if err := cmd.Main(os.Args); err != nil {
		logger.Fatal(err)
	}
}
