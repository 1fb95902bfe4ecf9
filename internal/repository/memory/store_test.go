package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/domain"
	"archivist/internal/domain/models/docsystem"
	"archivist/internal/domain/models/mail"
)

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	store := NewStore()
	folders := NewFolderRepository(store)
	tx := NewTransactionManager(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.ExecTx(ctx, func(ctx context.Context) error {
		require.NoError(t, folders.Create(ctx, &docsystem.Folder{Code: "OPS", Name: "Ops", FullPath: "/ROOT/OPS"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := folders.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTransactionManager_CommitsOnSuccess(t *testing.T) {
	store := NewStore()
	folders := NewFolderRepository(store)
	tx := NewTransactionManager(store)
	ctx := context.Background()

	err := tx.ExecTx(ctx, func(ctx context.Context) error {
		return folders.Create(ctx, &docsystem.Folder{Code: "OPS", Name: "Ops", FullPath: "/ROOT/OPS"})
	})
	require.NoError(t, err)

	f, err := folders.GetByCode(ctx, "OPS")
	require.NoError(t, err)
	assert.True(t, f.Active)
}

func TestFolderRepository_DuplicateActiveCode(t *testing.T) {
	store := NewStore()
	folders := NewFolderRepository(store)
	ctx := context.Background()

	first := &docsystem.Folder{Code: "OPS", Name: "Ops"}
	require.NoError(t, folders.Create(ctx, first))
	assert.ErrorIs(t, folders.Create(ctx, &docsystem.Folder{Code: "OPS", Name: "Again"}), domain.ErrConflict)

	require.NoError(t, folders.SoftDelete(ctx, first.ID))
	assert.NoError(t, folders.Create(ctx, &docsystem.Folder{Code: "OPS", Name: "Reused"}))
}

func TestSequenceRepository_SeedsFromExistingCodes(t *testing.T) {
	store := NewStore()
	docs := NewDocumentRepository(store)
	seq := NewSequenceRepository(store)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, docs.Create(ctx, &docsystem.Document{Code: "OPS-2025-0007", Title: "a", Status: docsystem.DocumentStatusActive, CreatedAt: now}))

	n, err := seq.NextDocumentSequence(ctx, "OPS", 2025)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = seq.NextDocumentSequence(ctx, "OPS", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = seq.NextMailSequence(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMailRepository_StatusWritesCompareAndSet(t *testing.T) {
	store := NewStore()
	docs := NewDocumentRepository(store)
	mails := NewMailRepository(store)
	ctx := context.Background()

	doc := &docsystem.Document{Code: "DOC-1", Title: "a", Status: docsystem.DocumentStatusActive}
	require.NoError(t, docs.Create(ctx, doc))
	m := &mail.Mail{Code: "COU-2025-0001", DocumentID: doc.ID, Subject: "s", Status: mail.StatusProcessed}
	require.NoError(t, mails.Create(ctx, m))

	err := mails.UpdateStatus(ctx, m.ID, mail.StatusInProgress, mail.StatusProcessed)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, string(mail.StatusProcessed), conflict.State)

	require.NoError(t, mails.MarkArchived(ctx, m.ID, time.Now()))
	err = mails.MarkArchived(ctx, m.ID, time.Now())
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, string(mail.StatusArchived), conflict.State)

	m.Subject = "edited"
	assert.ErrorIs(t, mails.Update(ctx, m), domain.ErrConflict)

	assert.ErrorIs(t, mails.UpdateStatus(ctx, 404, mail.StatusNew, mail.StatusInProgress), domain.ErrNotFound)
}
