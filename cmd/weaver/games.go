package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"weaver/internal/play"
	"weaver/internal/store"
)

func gamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Manage saved chronicles",
	}
	cmd.AddCommand(gamesListCmd())
	cmd.AddCommand(gamesShowCmd())
	cmd.AddCommand(gamesDeleteCmd())
	return cmd
}

func gamesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved games, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runGamesList,
	}
}

func runGamesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	games, err := a.manager.List(ctx)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(os.Stdout, "No saved games.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCHARACTER\tERA\tTHEME\tTURNS\tMEMORIES\tUPDATED")
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			g.ID, g.CharacterName, a.catalog.EraLabel(g.Era), a.catalog.ThemeLabel(g.Theme),
			g.TurnCount, g.MemoryCount, g.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func gamesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <game-id>",
		Short: "Print the current segment, character and memories of a game",
		Args:  cobra.ExactArgs(1),
		RunE:  runGamesShow,
	}
}

func runGamesShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	sess, err := a.manager.Get(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("game %s not found", args[0])
	}
	if err != nil {
		return err
	}

	play.RenderGame(os.Stdout, play.NewStyles(os.Stdout), sess.Store().Snapshot())
	return nil
}

func gamesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game-id>",
		Short: "Delete a game and all of its memories",
		Args:  cobra.ExactArgs(1),
		RunE:  runGamesDelete,
	}
}

func runGamesDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if err := a.manager.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("game %s not found", args[0])
		}
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted %s.\n", args[0])
	return nil
}
