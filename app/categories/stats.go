package categories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arborcms/arbor/models"
)

// Counter reconciliation and invariant verification. The denormalized
// counters are a cache of derivable quantities; everything here recomputes
// them from the ground truth so drift can always be repaired.

// reconcileCounters recomputes content_count, subcategory_count and
// total_content_count for every row from the actual tree shape and content
// tags, persisting only rows whose stored values differ. rows must be
// ordered parents-first and form a closed subtree: every child of an
// included node is included. Returns the number of repaired rows.
func reconcileCounters(ctx context.Context, repo Repository, rows []models.Category, contentCounts map[uuid.UUID]int) (int, error) {
	childCounts := make(map[uuid.UUID]int, len(rows))
	totals := make(map[uuid.UUID]int, len(rows))
	for i := range rows {
		totals[rows[i].ID] = contentCounts[rows[i].ID]
	}

	// Deepest rows first, so each node's total is final before it is folded
	// into its parent.
	for i := len(rows) - 1; i >= 0; i-- {
		row := &rows[i]
		if row.ParentID == nil {
			continue
		}
		if _, inScope := totals[*row.ParentID]; !inScope {
			// Parent above the subtree root; its counters are out of scope.
			continue
		}
		childCounts[*row.ParentID]++
		totals[*row.ParentID] += totals[row.ID]
	}

	repaired := 0
	for i := range rows {
		row := &rows[i]
		wantContent := contentCounts[row.ID]
		wantChildren := childCounts[row.ID]
		wantTotal := totals[row.ID]
		if row.ContentCount == wantContent &&
			row.SubcategoryCount == wantChildren &&
			row.TotalContentCount == wantTotal {
			continue
		}
		if err := repo.SetCounters(ctx, row.ID, wantContent, wantChildren, wantTotal); err != nil {
			return repaired, fmt.Errorf("set counters for %s: %w", row.ID, err)
		}
		repaired++
	}
	return repaired, nil
}

// verifyRows checks the structural invariants of the whole stored forest:
// parent links resolve, levels and paths agree with the parent chain, slugs
// are well-formed, no node sits past the depth limit, no duplicate paths,
// and every ancestor walk terminates. It reports problems; it never fixes
// them.
func verifyRows(rows []models.Category, maxDepth int) *IntegrityReport {
	report := &IntegrityReport{ScannedNodes: len(rows)}
	add := func(row *models.Category, format string, args ...interface{}) {
		report.Issues = append(report.Issues, IntegrityIssue{
			CategoryID: row.ID,
			Path:       row.Path,
			Problem:    fmt.Sprintf(format, args...),
		})
	}

	byID := make(map[uuid.UUID]*models.Category, len(rows))
	byPath := make(map[string]uuid.UUID, len(rows))
	for i := range rows {
		row := &rows[i]
		byID[row.ID] = row
		if other, dup := byPath[row.Path]; dup {
			add(row, "path duplicates category %s", other)
		} else {
			byPath[row.Path] = row.ID
		}
	}

	for i := range rows {
		row := &rows[i]
		if !row.IsValidSlug() {
			add(row, "invalid slug %q", row.Slug)
		}
		if row.Level > maxDepth-1 {
			add(row, "level %d exceeds depth limit %d", row.Level, maxDepth)
		}

		if row.ParentID == nil {
			if row.Level != 0 {
				add(row, "root has level %d, want 0", row.Level)
			}
			if row.Path != models.PathSeparator+row.Slug {
				add(row, "root path %q does not match slug %q", row.Path, row.Slug)
			}
			continue
		}

		if *row.ParentID == row.ID {
			add(row, "category is its own parent")
			continue
		}
		parent, ok := byID[*row.ParentID]
		if !ok {
			add(row, "references missing parent %s", *row.ParentID)
			continue
		}
		if row.Level != parent.Level+1 {
			add(row, "level %d, want %d (parent level + 1)", row.Level, parent.Level+1)
		}
		if want := ChildPath(parent.Path, row.Slug); row.Path != want {
			add(row, "path %q, want %q", row.Path, want)
		}
	}

	// A bounded upward walk per node catches cycles even when level and
	// path were corrupted consistently enough to pass the checks above.
	for i := range rows {
		row := &rows[i]
		current := row
		terminated := false
		for step := 0; step <= maxDepth; step++ {
			if current.ParentID == nil {
				terminated = true
				break
			}
			next, ok := byID[*current.ParentID]
			if !ok {
				// Dangling parent already reported.
				terminated = true
				break
			}
			current = next
		}
		if !terminated {
			add(row, "ancestor chain does not terminate within %d levels", maxDepth)
		}
	}

	return report
}
