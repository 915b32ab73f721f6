package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "saral/pkg/platform/audit"
)

func TestInMemoryStore_ListRecentNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for _, action := range []audit.AuditEvent{audit.EventArmAssigned, audit.EventCaseCreated, audit.EventCaseDisposed} {
		require.NoError(t, s.Append(ctx, audit.Event{CaseID: "c1", Action: string(action)}))
	}

	events, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventCaseDisposed), events[0].Action)
	assert.Equal(t, string(audit.EventCaseCreated), events[1].Action)

	byCase, err := s.ListByCase(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, byCase, 3)
}
