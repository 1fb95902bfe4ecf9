package docsystem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/domain"
	"archivist/internal/domain/models/docsystem"
	docsysSvc "archivist/internal/domain/services/docsystem"
)

func TestCreateFolder_MaterializesPath(t *testing.T) {
	f := newFixture(t)

	ops := f.mustFolder(t, "ops", nil)
	assert.Equal(t, "OPS", ops.Code)
	assert.Equal(t, "/ROOT/OPS", ops.FullPath)
	assert.Equal(t, docsystem.DefaultFolderIcon, ops.Icon)
	assert.True(t, ops.Active)
	assert.Equal(t, f.admin.ID, ops.CreatedBy)

	hr := f.mustFolder(t, "HR", &ops.ID)
	assert.Equal(t, "/ROOT/OPS/HR", hr.FullPath)
	assert.Equal(t, ops.ID, *hr.ParentID)

	entries := f.store.AuditEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "folder.create", entries[0].Action)
}

func TestCreateFolder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   docsysSvc.CreateFolderRequest
		field string
	}{
		{"code too short", docsysSvc.CreateFolderRequest{Code: "A", Name: "A"}, "code"},
		{"code too long", docsysSvc.CreateFolderRequest{Code: "ABCDEFGHIJK", Name: "A"}, "code"},
		{"code with dash", docsysSvc.CreateFolderRequest{Code: "OP-S", Name: "Ops"}, "code"},
		{"code with underscore", docsysSvc.CreateFolderRequest{Code: "OP_S", Name: "Ops"}, "code"},
		{"missing name", docsysSvc.CreateFolderRequest{Code: "OPS", Name: "   "}, "name"},
		{"missing code", docsysSvc.CreateFolderRequest{Name: "Ops"}, "code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.folders.CreateFolder(ctx, f.admin, &req)
			require.ErrorIs(t, err, domain.ErrValidation)

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestCreateFolder_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustFolder(t, "OPS", nil)

	_, err := f.folders.CreateFolder(ctx, f.reader, &docsysSvc.CreateFolderRequest{Code: "FIN", Name: "Finance"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.folders.CreateFolder(ctx, f.manager, &docsysSvc.CreateFolderRequest{Code: "FIN", Name: "Finance"})
	assert.NoError(t, err)

	_, err = f.folders.CreateFolder(ctx, f.admin, &docsysSvc.CreateFolderRequest{Code: "OPS", Name: "Again"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.folders.CreateFolder(ctx, f.admin, &docsysSvc.CreateFolderRequest{Code: "ORPHAN", Name: "Orphan", ParentID: ptr(int64(424242))})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ops := f.mustFolder(t, "OPS", nil)

	updated, err := f.folders.UpdateFolder(ctx, f.manager, ops.ID, &docsysSvc.UpdateFolderRequest{
		Name:         ptr("Operations"),
		Icon:         ptr("not-an-icon"),
		DisplayOrder: ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Operations", updated.Name)
	assert.Equal(t, docsystem.DefaultFolderIcon, updated.Icon)
	assert.Equal(t, 5, updated.DisplayOrder)
	assert.Equal(t, "OPS", updated.Code)

	updated, err = f.folders.UpdateFolder(ctx, f.admin, ops.ID, &docsysSvc.UpdateFolderRequest{Icon: ptr("archive")})
	require.NoError(t, err)
	assert.Equal(t, "archive", updated.Icon)

	_, err = f.folders.UpdateFolder(ctx, f.reader, ops.ID, &docsysSvc.UpdateFolderRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.folders.UpdateFolder(ctx, f.admin, ops.ID, &docsysSvc.UpdateFolderRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.folders.UpdateFolder(ctx, f.admin, ops.ID, &docsysSvc.UpdateFolderRequest{Name: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.folders.EnsureSystemFolders(ctx))

	ops := f.mustFolder(t, "OPS", nil)
	empty := f.mustFolder(t, "TMP", nil)
	f.mustDocument(t, "Budget", &ops.ID)

	assert.ErrorIs(t, f.folders.DeleteFolder(ctx, f.manager, empty.ID), domain.ErrForbidden)
	assert.ErrorIs(t, f.folders.DeleteFolder(ctx, f.admin, ops.ID), domain.ErrConflict)

	trash, err := f.folderRepo.GetByCode(ctx, docsystem.TrashFolderCode)
	require.NoError(t, err)
	err = f.folders.DeleteFolder(ctx, f.admin, trash.ID)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "folder", conflict.ResourceType)

	require.NoError(t, f.folders.DeleteFolder(ctx, f.admin, empty.ID))
	_, err = f.folders.GetFolder(ctx, f.admin, empty.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the code is free again once the folder is gone
	again := f.mustFolder(t, "TMP", nil)
	assert.NotEqual(t, empty.ID, again.ID)

	assert.ErrorIs(t, f.folders.DeleteFolder(ctx, f.admin, 999999), domain.ErrNotFound)
}

func TestDeleteFolder_WithSubfolders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ops := f.mustFolder(t, "OPS", nil)
	f.mustFolder(t, "HR", &ops.ID)

	assert.ErrorIs(t, f.folders.DeleteFolder(ctx, f.admin, ops.ID), domain.ErrConflict)
}

func TestDeleteFolder_DeletedDocumentsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ops := f.mustFolder(t, "OPS", nil)
	doc := f.mustDocument(t, "Old memo", &ops.ID)

	require.NoError(t, f.docs.DeleteDocument(ctx, f.admin, doc.ID))
	assert.NoError(t, f.folders.DeleteFolder(ctx, f.admin, ops.ID))
}

func TestGetFolder_DocumentCount(t *testing.T) {
	f := newFixture(t)
	ops := f.mustFolder(t, "OPS", nil)
	f.mustDocument(t, "One", &ops.ID)
	f.mustDocument(t, "Two", &ops.ID)

	got, err := f.folders.GetFolder(context.Background(), f.reader, ops.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.DocumentCount)
}

func TestConfidentialFolderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.folders.EnsureSystemFolders(ctx))

	codes := func(folders []docsystem.Folder) []string {
		out := make([]string, 0, len(folders))
		for _, folder := range folders {
			out = append(out, folder.Code)
		}
		return out
	}

	all, err := f.folders.ListFolders(ctx, f.admin)
	require.NoError(t, err)
	assert.Contains(t, codes(all), docsystem.ConfidentialFolderCode)

	visible, err := f.folders.ListFolders(ctx, f.manager)
	require.NoError(t, err)
	assert.NotContains(t, codes(visible), docsystem.ConfidentialFolderCode)
	assert.Len(t, visible, len(all)-1)

	confidential, err := f.folderRepo.GetByCode(ctx, docsystem.ConfidentialFolderCode)
	require.NoError(t, err)
	_, err = f.folders.GetFolder(ctx, f.reader, confidential.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err := f.folders.SearchFolders(ctx, f.reader, "confid")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestListChildrenAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ops := f.mustFolder(t, "OPS", nil)
	f.mustFolder(t, "HR", &ops.ID)
	f.mustFolder(t, "IT", &ops.ID)
	f.mustFolder(t, "FIN", nil)

	roots, err := f.folders.ListChildren(ctx, f.reader, nil)
	require.NoError(t, err)
	assert.Len(t, roots, 2)

	children, err := f.folders.ListChildren(ctx, f.reader, &ops.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "HR", children[0].Code)

	_, err = f.folders.ListChildren(ctx, f.reader, ptr(int64(31337)))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err := f.folders.SearchFolders(ctx, f.reader, "hr")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "/ROOT/OPS/HR", found[0].FullPath)

	empty, err := f.folders.SearchFolders(ctx, f.reader, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetPath(t *testing.T) {
	f := newFixture(t)
	ops := f.mustFolder(t, "OPS", nil)
	hr := f.mustFolder(t, "HR", &ops.ID)
	pay := f.mustFolder(t, "PAY", &hr.ID)

	path, err := f.folders.GetPath(context.Background(), f.reader, pay.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, "OPS", path[0].Code)
	assert.Equal(t, "HR", path[1].Code)
	assert.Equal(t, "PAY", path[2].Code)

	require.NoError(t, f.folders.EnsureSystemFolders(context.Background()))
	path, err = f.folders.GetPath(context.Background(), f.reader, hr.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, docsystem.RootFolderCode, path[0].Code)
	assert.Equal(t, "HR", path[2].Code)
}

func TestEnsureSystemFolders_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.folders.EnsureSystemFolders(ctx))
	require.NoError(t, f.folders.EnsureSystemFolders(ctx))

	all, err := f.folders.ListFolders(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	root, err := f.folderRepo.GetByCode(ctx, docsystem.RootFolderCode)
	require.NoError(t, err)
	assert.Equal(t, "/ROOT", root.FullPath)
	assert.True(t, root.IsSystem)

	archives, err := f.folderRepo.GetByCode(ctx, docsystem.ArchivesFolderCode)
	require.NoError(t, err)
	assert.Equal(t, "/ROOT/ARCHIVES", archives.FullPath)
	assert.Equal(t, "archive", archives.Icon)
}
