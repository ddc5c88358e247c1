package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/store"
)

func TestRecorderAppends(t *testing.T) {
	mem := store.NewMemory()
	rec := NewRecorder(mem, nil)
	ctx := context.Background()

	row, err := rec.Record(ctx, "system", model.AuditScanStarted, "scan-1", map[string]any{"profile": "passive"})
	require.NoError(t, err)
	require.True(t, row.Immutable)
	require.NotEmpty(t, row.ID)
	require.False(t, row.CreatedAt.IsZero())

	rows, err := mem.ListAudit(ctx, "scan-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, model.AuditScanStarted, rows[0].Action)
	require.Equal(t, "system", rows[0].Actor)
}
