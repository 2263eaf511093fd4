package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, appLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		_ = appLogger.Sync()
	}()
	return a.Run()
}
