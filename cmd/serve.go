package main

import (
	"github.com/spf13/cobra"
	"github.com/xhad/ideascout/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(a.ideas, a.products, a.coordinator, a.refiner, a.logger)
		return srv.Run(":" + a.cfg.Server.Port)
	},
}
