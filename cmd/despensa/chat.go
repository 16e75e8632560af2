package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/despensa/internal/cli"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE:  runChat,
	}

	cmd.Flags().String("user", "local", "user id the conversation is stored under")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")

	interrupts := cli.NewInterruptHandler(cmd.OutOrStdout())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return cli.NewREPL(a.handler, os.Stdin, cmd.OutOrStdout(), userID).Run(ctx)
}
