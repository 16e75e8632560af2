package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/despensa/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP",
		Long: `Serve POST /v1/chat, GET /healthz and GET /metrics.

Pending actions are kept per user_id in the configured conversation store;
use conversation.store=redis to share them between several processes.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := settings.Server.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	return server.New(a.handler, server.Options{
		Addr:           addr,
		RequestTimeout: settings.Server.RequestTimeout,
	}).Run(ctx)
}
