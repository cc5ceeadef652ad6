// Command corvid is a UCI driver process: it wires stdin/stdout to
// internal/protocol, which in turn drives internal/engine.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/corvidchess/engine/internal/config"
	"github.com/corvidchess/engine/internal/engine"
	"github.com/corvidchess/engine/internal/protocol"
)

func main() {
	cfg, err := config.Load(os.Getenv("CORVID_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("info string config error: %v", err))
		os.Exit(1)
	}
	engine.SetConfig(cfg)

	d := protocol.New(os.Stdout)
	d.Run(os.Stdin)
}
