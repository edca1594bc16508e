package sheets

import (
	"context"

	"costboard/internal/core"
)

// Ports for the export adapters.
type (
	// GridWriter replaces the whole content of one tab with rows.
	GridWriter interface {
		ReplaceGrid(ctx context.Context, tab string, rows [][]any) error
	}

	// SnapshotSource provides the dashboard views to export.
	SnapshotSource interface {
		Snapshot(ctx context.Context) (core.Dashboard, error)
	}
)
