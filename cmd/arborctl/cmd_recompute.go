package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arborcms/arbor/app/categories"
)

var (
	recomputeID       string
	recomputeAll      bool
	recomputeParallel int
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute denormalized category counters",
	Long: `Rebuilds content_count, subcategory_count and total_content_count from
ground truth. --id repairs one subtree; --all walks every root tree,
repairing up to --parallel trees at once. Each tree is repaired in its own
transaction under its root lock, so the server can keep serving writes to
other trees while a repair runs.`,
	RunE: runRecompute,
}

func init() {
	recomputeCmd.Flags().StringVar(&recomputeID, "id", "", "Restrict the run to the subtree rooted at this category")
	recomputeCmd.Flags().BoolVar(&recomputeAll, "all", false, "Recompute every root tree")
	recomputeCmd.Flags().IntVar(&recomputeParallel, "parallel", 4, "Trees repaired concurrently with --all")
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	if recomputeAll == (recomputeID != "") {
		return errors.New("exactly one of --id or --all must be given")
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	svc := rt.categoryService()
	ctx := cmd.Context()

	if recomputeID != "" {
		id, err := uuid.Parse(recomputeID)
		if err != nil {
			return fmt.Errorf("invalid category id %q: %w", recomputeID, err)
		}
		report, err := svc.RecomputeStats(ctx, &id)
		if err != nil {
			return fmt.Errorf("recompute: %w", err)
		}
		printRecomputeReport(cmd, report)
		return nil
	}

	roots, err := rt.categoryRepo().GetRoots(ctx, false)
	if err != nil {
		return fmt.Errorf("list root categories: %w", err)
	}
	if len(roots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No categories to recompute")
		return nil
	}

	if recomputeParallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", recomputeParallel)
	}

	var mu sync.Mutex
	total := &categories.RecomputeReport{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeParallel)
	for i := range roots {
		root := roots[i]
		g.Go(func() error {
			report, err := svc.RecomputeStats(gctx, &root.ID)
			if err != nil {
				return fmt.Errorf("recompute %s: %w", root.Path, err)
			}
			mu.Lock()
			total.ScannedNodes += report.ScannedNodes
			total.RepairedNodes += report.RepairedNodes
			total.Duration += report.Duration
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d root tree(s)\n", len(roots))
	printRecomputeReport(cmd, total)
	return nil
}

func printRecomputeReport(cmd *cobra.Command, report *categories.RecomputeReport) {
	fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d categories, repaired %d\n",
		report.ScannedNodes, report.RepairedNodes)
}
