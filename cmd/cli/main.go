package main

import (
	"fmt"
	"os"

	"tlscope/internal/cliplugins"
	"tlscope/internal/identity"
	"tlscope/pkg/cli"
)

func main() {
	deriver := identity.NewDeriver(nil)

	c := cli.NewCLI("tlscope-cli", "TLScope utility commands")
	c.RegisterPlugin(cliplugins.NewTokenCommand(deriver))
	c.RegisterPlugin(cliplugins.NewKeygenCommand(deriver))
	c.RegisterPlugin(cliplugins.NewPeersCommand())

	if err := c.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
