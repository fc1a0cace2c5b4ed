package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"weaver/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, appOptions{withAI: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	stopSaver := a.runSaver(ctx)
	defer stopSaver()

	server := mcp.NewServer(a.catalog, a.manager, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
