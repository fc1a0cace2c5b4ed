package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"weaver/internal/game"
)

func newCmd() *cobra.Command {
	var setup game.Setup
	var noPlay bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a character and start a new chronicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, setup, noPlay)
		},
	}
	cmd.Flags().StringVar(&setup.Era, "era", "", "Era id from the catalog, or custom")
	cmd.Flags().StringVar(&setup.CustomEra, "custom-era", "", "Era description when --era=custom")
	cmd.Flags().StringVar(&setup.Theme, "theme", "", "Theme id from the catalog, or custom")
	cmd.Flags().StringVar(&setup.CustomTheme, "custom-theme", "", "Theme description when --theme=custom")
	cmd.Flags().StringVar(&setup.CharacterName, "name", "", "Character name")
	cmd.Flags().IntVar(&setup.Realism, "realism", game.DefaultRealism, "0 dramatic to 100 strictly historical")
	cmd.Flags().BoolVar(&setup.GenerateBackstory, "generate-backstory", false, "Let the narrator write a backstory")
	cmd.Flags().StringVar(&setup.Backstory, "backstory", "", "Your own backstory")
	cmd.Flags().BoolVar(&noPlay, "no-play", false, "Create the game and print its id without playing")
	return cmd
}

func runNew(cmd *cobra.Command, setup game.Setup, noPlay bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, appOptions{withAI: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	stopSaver := a.runSaver(ctx)
	defer stopSaver()

	if setup.Era == "" && setup.Theme == "" {
		printCatalog(cmd, a)
	}

	sess, err := a.manager.Start(ctx, setup)
	if err != nil {
		var invalid game.ValidationErrors
		if errors.As(err, &invalid) {
			printValidation(cmd, invalid)
			return fmt.Errorf("invalid setup")
		}
		return err
	}

	if noPlay {
		cmd.Println(sess.Store().Game().ID)
		return nil
	}
	return playSession(ctx, sess)
}

func printCatalog(cmd *cobra.Command, a *app) {
	cmd.Println("Eras:")
	for _, era := range a.catalog.Eras {
		cmd.Printf("  %-20s %s (%s)\n", era.ID, era.Name, era.Period)
	}
	cmd.Println("Themes:")
	for _, theme := range a.catalog.Themes {
		cmd.Printf("  %-20s %s\n", theme.ID, theme.Name)
	}
	cmd.Println("")
}

func printValidation(cmd *cobra.Command, errs game.ValidationErrors) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		cmd.PrintErrf("  - %s: %s\n", field, errs[field])
	}
}
