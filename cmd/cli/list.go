package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/change-warden/internal/app"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/storage"
)

var listOpts struct {
	authors  []string
	projects []string
	since    string
	until    string
	minScore int
	maxScore int
	limit    int
}

var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List stored reviews of one kind, newest first",
	Long: `List stored reviews of one kind, newest first.

Examples:
  warden-cli list push --project payments --since 2026-01-01
  warden-cli list mr --author alice --max-score 60`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	f := listCmd.Flags()
	f.StringSliceVar(&listOpts.authors, "author", nil, "Only reviews by these authors")
	f.StringSliceVar(&listOpts.projects, "project", nil, "Only reviews of these projects")
	f.StringVar(&listOpts.since, "since", "", "Only reviews created on or after this date (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&listOpts.until, "until", "", "Only reviews created on or before this date (YYYY-MM-DD or RFC 3339)")
	f.IntVar(&listOpts.minScore, "min-score", -1, "Minimum score")
	f.IntVar(&listOpts.maxScore, "max-score", -1, "Maximum score")
	f.IntVar(&listOpts.limit, "limit", 50, "Maximum number of rows")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, args []string) error {
	kind, err := core.ParseSourceKind(args[0])
	if err != nil {
		return err
	}
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	return withToolkit(func(ctx context.Context, tk *app.Toolkit) error {
		rows, err := listRows(ctx, tk.Store, kind, filter)
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(rows.data)
		}
		if len(rows.cells) == 0 {
			warnColor.Println("No reviews match the filter.")
			return nil
		}

		table := newTable(os.Stdout, "ID", "Project", "Author", rows.refHeader, "Score", "+/-", "Created")
		table.AppendBulk(rows.cells)
		table.Render()
		return nil
	})
}

type listResult struct {
	data      any
	refHeader string
	cells     [][]string
}

func listRows(ctx context.Context, store storage.Store, kind core.SourceKind, f storage.Filter) (*listResult, error) {
	row := func(b *core.ReviewBase, ref string) []string {
		return []string{
			strconv.FormatInt(b.ID, 10),
			b.ProjectName,
			b.Author,
			ref,
			scoreString(b.Score),
			fmt.Sprintf("+%d/-%d", b.Additions, b.Deletions),
			b.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}

	res := &listResult{}
	switch kind {
	case core.KindMergeRequest:
		reviews, err := store.MergeRequests().List(ctx, f)
		if err != nil {
			return nil, err
		}
		res.data, res.refHeader = reviews, "Branches"
		for i := range reviews {
			res.cells = append(res.cells, row(&reviews[i].ReviewBase, reviews[i].SourceBranch+" → "+reviews[i].TargetBranch))
		}
	case core.KindPush:
		reviews, err := store.Pushes().List(ctx, f)
		if err != nil {
			return nil, err
		}
		res.data, res.refHeader = reviews, "Branch@Commit"
		for i := range reviews {
			res.cells = append(res.cells, row(&reviews[i].ReviewBase, reviews[i].Branch+"@"+shortSHA(reviews[i].CommitSHA)))
		}
	case core.KindSVNRevision:
		reviews, err := store.SVNRevisions().List(ctx, f)
		if err != nil {
			return nil, err
		}
		res.data, res.refHeader = reviews, "Revision"
		for i := range reviews {
			res.cells = append(res.cells, row(&reviews[i].ReviewBase, "r"+reviews[i].Revision))
		}
	}
	return res, nil
}

func buildFilter() (storage.Filter, error) {
	f := storage.Filter{
		Authors:  listOpts.authors,
		Projects: listOpts.projects,
		Limit:    listOpts.limit,
	}
	var err error
	if f.Since, err = parseDate("since", listOpts.since); err != nil {
		return f, err
	}
	if f.Until, err = parseDate("until", listOpts.until); err != nil {
		return f, err
	}
	if listOpts.minScore >= 0 {
		f.MinScore = &listOpts.minScore
	}
	if listOpts.maxScore >= 0 {
		f.MaxScore = &listOpts.maxScore
	}
	return f, nil
}

func parseDate(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q (expected YYYY-MM-DD or RFC 3339)", name, raw)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
