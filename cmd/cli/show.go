package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sevigo/change-warden/internal/app"
	"github.com/sevigo/change-warden/internal/core"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a stored review",
}

var showMRCmd = &cobra.Command{
	Use:   "mr <id>",
	Short: "Show a merge request review by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid review id %q", args[0])
		}
		return withToolkit(func(ctx context.Context, tk *app.Toolkit) error {
			review, err := tk.Store.MergeRequests().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(review)
			}
			printReview(&review.ReviewBase, []string{
				"Merge: " + review.SourceBranch + " → " + review.TargetBranch,
				"URL:   " + review.URL,
			})
			return nil
		})
	},
}

var showPushCmd = &cobra.Command{
	Use:   "push <commit>",
	Short: "Show the newest push review whose head commit matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withToolkit(func(ctx context.Context, tk *app.Toolkit) error {
			review, err := tk.Store.Pushes().FindByCommit(ctx, args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(review)
			}
			printReview(&review.ReviewBase, []string{
				"Branch: " + review.Branch,
				"Commit: " + review.CommitSHA,
			})
			return nil
		})
	},
}

var svnProject string

var showSVNCmd = &cobra.Command{
	Use:   "svn <revision|digest>",
	Short: "Show an SVN revision review by revision number or content digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withToolkit(func(ctx context.Context, tk *app.Toolkit) error {
			review, err := tk.Store.SVNRevisions().FindByRevisionOrDigest(ctx, svnProject, args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(review)
			}
			details := []string{
				"Revision: r" + review.Revision,
				"Files:    " + strings.Join(review.FilePaths, ", "),
			}
			if review.CommitDate != nil {
				details = append(details, "Date:     "+review.CommitDate.Format("2006-01-02 15:04"))
			}
			printReview(&review.ReviewBase, details)
			return nil
		})
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	showSVNCmd.Flags().StringVar(&svnProject, "project", "", "Repository the revision belongs to")
	showCmd.AddCommand(showMRCmd, showPushCmd, showSVNCmd)
	rootCmd.AddCommand(showCmd)
}

func printReview(base *core.ReviewBase, details []string) {
	separator := strings.Repeat("═", 60)

	titleColor.Println(separator)
	titleColor.Printf("%s #%d\n", base.ProjectName, base.ID)
	titleColor.Println(separator)
	boldColor.Printf("Score: %s", scoreString(base.Score))
	dimColor.Printf("   +%d -%d   by %s   %s\n", base.Additions, base.Deletions, base.Author,
		base.CreatedAt.Local().Format("2006-01-02 15:04"))
	for _, d := range details {
		dimColor.Println(d)
	}
	dimColor.Printf("Digest: %s\n", base.ContentDigest)
	if base.CommitMessages != "" {
		fmt.Println()
		fmt.Println(base.CommitMessages)
	}
	fmt.Println()
	fmt.Print(renderMarkdown(base.ReviewText))
}
