package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xpresspost/rateshop/pkg/commands"
	"github.com/xpresspost/rateshop/pkg/configuration"
)

func main() {
	root := &cobra.Command{
		Use:   "rateshop",
		Short: "Shipment rate shopping and rate increase tooling",
	}
	root.AddCommand(commands.NewRatingCommands()...)

	defer configuration.Use().Unload()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
