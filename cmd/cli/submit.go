package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/jobs"
	"github.com/sevigo/change-warden/internal/wire"
)

var submitCmd = &cobra.Command{
	Use:   "submit <kind> [event.json]",
	Short: "Review a change event once and store the result",
	Long: `Review a change event once and store the result.

kind is one of merge_request (mr), push or svn_revision (svn). The event JSON
is read from the given file, or from stdin when no file is given. A change
whose content was reviewed before is reported as a duplicate.

Examples:
  warden-cli submit push event.json
  svn-export r1042 | warden-cli submit svn`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSubmit,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	kind, err := core.ParseSourceKind(args[0])
	if err != nil {
		return err
	}

	var payload []byte
	if len(args) == 2 {
		payload, err = os.ReadFile(args[1])
	} else {
		payload, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}

	ctx := context.Background()
	job, cleanup, err := wire.InitializeReviewJob(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize review pipeline: %w", err)
	}
	defer cleanup()

	start := time.Now()
	res, err := job.Submit(ctx, kind, payload)
	if outputJSON && res != nil {
		if jsonErr := printJSON(res); jsonErr != nil {
			return jsonErr
		}
		return err
	}
	if err != nil {
		errorColor.Printf("✗ Review failed in state %s\n", res.State)
		return err
	}

	printResult(res, time.Since(start))
	return nil
}

func printResult(res *jobs.Result, elapsed time.Duration) {
	switch res.State {
	case jobs.StateDuplicateSkipped:
		warnColor.Println("↺ Already reviewed")
		dimColor.Printf("   Existing %s review #%d\n", res.Kind, res.ResultID)
	default:
		successColor.Printf("✓ Review stored as %s #%d\n", res.Kind, res.ResultID)
		fmt.Printf("   Score:    %s\n", scoreString(res.Score))
		dimColor.Printf("   Attempts: %d\n", res.Attempts)
	}
	dimColor.Printf("   Digest:   %s\n", res.Digest)
	dimColor.Printf("   Time:     %s\n", elapsed.Round(time.Millisecond))
}
