package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weaver/internal/lore"
	"weaver/internal/store"
)

func loreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lore",
		Short: "Manage the lore of a chronicle",
	}
	cmd.AddCommand(loreImportCmd())
	return cmd
}

func loreImportCmd() *cobra.Command {
	var excludes []string
	cmd := &cobra.Command{
		Use:   "import <game-id> <paths...>",
		Short: "Add lore entries from markdown files with YAML frontmatter",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoreImport(cmd, args, excludes)
		},
	}
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Paths to skip while walking directories")
	return cmd
}

func runLoreImport(cmd *cobra.Command, args []string, excludes []string) error {
	ctx := context.Background()
	gameID := args[0]

	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	sess, err := a.manager.Get(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("game %s not found", gameID)
	}
	if err != nil {
		return err
	}

	files, err := lore.Collect(args[1:], excludes)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stdout, "No markdown files found.")
		return nil
	}

	result, importErr := lore.Import(sess.Store(), files)
	for _, title := range result.Added {
		fmt.Fprintf(os.Stdout, "  + %s\n", title)
	}
	for _, title := range result.Skipped {
		fmt.Fprintf(os.Stdout, "  = %s (already known)\n", title)
	}

	if len(result.Added) > 0 {
		if err := a.saver.Save(ctx, a.identity.UID, sess.Store().Game()); err != nil {
			return err
		}
	}

	if importErr != nil {
		fmt.Fprintf(os.Stdout, "\nErrors:\n  - %v\n", importErr)
		return fmt.Errorf("lore import completed with errors")
	}
	return nil
}
