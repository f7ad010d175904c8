package main

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sevigo/change-warden/internal/app"
)

var (
	ledgerProject string
	ledgerLimit   int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the newest review ledger entries",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withToolkit(func(ctx context.Context, tk *app.Toolkit) error {
			entries, err := tk.Ledger.Recent(ctx, ledgerProject, ledgerLimit)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				warnColor.Println("The ledger is empty.")
				return nil
			}

			table := newTable(os.Stdout, "Project", "Digest", "Result", "Reviewed")
			for _, e := range entries {
				table.Append([]string{
					e.ProjectName,
					e.ContentDigest.Short(),
					string(e.ResultKind) + " #" + strconv.FormatInt(e.ResultID, 10),
					e.ReviewedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table.Render()
			return nil
		})
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	ledgerCmd.Flags().StringVar(&ledgerProject, "project", "", "Only entries of this project")
	ledgerCmd.Flags().IntVar(&ledgerLimit, "limit", 50, "Maximum number of entries")
	rootCmd.AddCommand(ledgerCmd)
}
