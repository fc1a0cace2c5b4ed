package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"weaver/internal/validate"
)

func validateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against saved games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on warnings as well as errors")
	return cmd
}

func runValidate(strict bool) error {
	ctx := context.Background()

	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	report, err := validate.Run(ctx, a.catalog, a.db, a.identity.UID)
	if err != nil {
		return err
	}

	if len(report.Issues) == 0 {
		fmt.Fprintf(os.Stdout, "Checked %d games. No issues found.\n", report.Games)
		return nil
	}

	errorCount := printReport(os.Stdout, report)
	warnCount := len(report.Issues) - errorCount
	fmt.Fprintf(os.Stdout, "\nChecked %d games: %d errors, %d warnings.\n", report.Games, errorCount, warnCount)

	if report.HasErrors() || (strict && warnCount > 0) {
		return fmt.Errorf("validation found problems")
	}
	return nil
}

// printReport lists issues grouped by game, errors before warnings, and
// returns the number of errors.
func printReport(out io.Writer, report *validate.Report) int {
	byGame := make(map[string][]validate.Issue)
	characters := make(map[string]string)
	var order []string
	for _, issue := range report.Issues {
		if _, ok := byGame[issue.GameID]; !ok {
			order = append(order, issue.GameID)
		}
		byGame[issue.GameID] = append(byGame[issue.GameID], issue)
		if issue.Character != "" {
			characters[issue.GameID] = issue.Character
		}
	}

	errorCount := 0
	for _, gameID := range order {
		issues := byGame[gameID]
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Severity == validate.SeverityError && issues[j].Severity != validate.SeverityError
		})

		heading := gameID
		if name := characters[gameID]; name != "" {
			heading = fmt.Sprintf("%s (%s)", gameID, name)
		}
		fmt.Fprintln(out, heading)
		for _, issue := range issues {
			if issue.Severity == validate.SeverityError {
				errorCount++
			}
			fmt.Fprintf(out, "  %-7s %s (%s)\n", issue.Severity, issue.Message, issue.Code)
		}
	}
	return errorCount
}
