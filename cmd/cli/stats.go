package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sevigo/change-warden/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show review counts and average scores per kind and project",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withToolkit(func(ctx context.Context, tk *app.Toolkit) error {
			reviews, err := tk.Store.Stats(ctx)
			if err != nil {
				return err
			}
			ledgerStats, err := tk.Ledger.Stats(ctx)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(map[string]any{"reviews": reviews, "ledger": ledgerStats})
			}

			titleColor.Println("Reviews by kind")
			kinds := newTable(os.Stdout, "Kind", "Reviews", "Avg score")
			for _, k := range reviews.Kinds {
				kinds.Append([]string{string(k.Kind), strconv.FormatInt(k.Count, 10), fmt.Sprintf("%.1f", k.AverageScore)})
			}
			kinds.Render()

			fmt.Println()
			titleColor.Println("Reviews by project")
			projects := newTable(os.Stdout, "Project", "Kind", "Reviews")
			for _, p := range reviews.Projects {
				projects.Append([]string{p.ProjectName, string(p.Kind), strconv.FormatInt(p.Count, 10)})
			}
			projects.Render()

			fmt.Println()
			dimColor.Printf("Ledger entries: %d   Failed reviews: %d\n", ledgerStats.Total, reviews.Failures)
			return nil
		})
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(statsCmd)
}
