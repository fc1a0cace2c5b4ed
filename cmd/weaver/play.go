package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"weaver/internal/play"
	"weaver/internal/session"
	"weaver/internal/store"
)

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play [game-id]",
		Short: "Continue a saved chronicle (the most recent one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlay,
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, appOptions{withAI: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	stopSaver := a.runSaver(ctx)
	defer stopSaver()

	gameID := ""
	if len(args) > 0 {
		gameID = args[0]
	} else {
		games, err := a.manager.List(ctx)
		if err != nil {
			return err
		}
		if len(games) == 0 {
			return fmt.Errorf("no saved games, start one with weaver new")
		}
		gameID = games[0].ID
	}

	sess, err := a.manager.Get(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("game %s not found", gameID)
	}
	if err != nil {
		return err
	}
	return playSession(ctx, sess)
}

func playSession(ctx context.Context, sess *session.Session) error {
	presenter := play.New(os.Stdin, os.Stdout, play.WithLogger(logger.Named("play")))
	err := presenter.Run(ctx, sess)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
