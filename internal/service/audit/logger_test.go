package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"archivist/internal/domain/models"
	"archivist/internal/repository/memory"
)

type failingRepo struct {
	mock.Mock
}

func (m *failingRepo) Insert(ctx context.Context, entry *models.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func TestLog_Persists(t *testing.T) {
	store := memory.NewStore()
	l := NewLogger(memory.NewAuditRepository(store), slog.Default())

	l.Log(context.Background(), 7, "folder.create", "OPS")

	entries := store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].UserID)
	assert.Equal(t, "folder.create", entries[0].Action)
	assert.Equal(t, "OPS", entries[0].Detail)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestLog_SwallowsFailures(t *testing.T) {
	repo := new(failingRepo)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	var buf bytes.Buffer
	l := NewLogger(repo, slog.New(slog.NewTextHandler(&buf, nil)))

	assert.NotPanics(t, func() {
		l.Log(context.Background(), 1, "mail.archive", "COU-2025-0001")
	})
	assert.Contains(t, buf.String(), "audit write failed")
	repo.AssertExpectations(t)
}
