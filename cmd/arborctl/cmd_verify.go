package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify hierarchy integrity",
	Long: `Checks every stored hierarchy invariant over the live categories table:
parent links resolve, levels and paths agree with the parent chain, slugs are
well-formed, no node exceeds the depth limit, paths are unique, and every
ancestor walk terminates.

Exits non-zero when issues are found. Nothing is modified; use "arborctl
recompute" to repair counter drift.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	report, err := rt.categoryService().VerifyHierarchy(cmd.Context())
	if err != nil {
		return fmt.Errorf("verify hierarchy: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanned %d categories\n", report.ScannedNodes)
	if report.Clean() {
		fmt.Fprintln(out, "No integrity issues found")
		return nil
	}

	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  %s  %s  %s\n", issue.CategoryID, issue.Path, issue.Problem)
	}
	return fmt.Errorf("found %d integrity issue(s)", len(report.Issues))
}
