package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"archivist/internal/domain"
	"archivist/internal/domain/models/docsystem"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
)

// FolderRepository is an in-memory FolderRepository
type FolderRepository struct {
	store *Store
}

func NewFolderRepository(store *Store) docsysRepo.FolderRepository {
	return &FolderRepository{store: store}
}

func (r *FolderRepository) Create(_ context.Context, folder *docsystem.Folder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, f := range r.store.data.folders {
		if f.Active && f.Code == folder.Code {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder with code %q already exists", folder.Code),
				ResourceType: "folder",
				ResourceID:   folder.Code,
			}
		}
	}
	if folder.ParentID != nil {
		if _, ok := r.store.data.folders[*folder.ParentID]; !ok {
			return domain.NewNotFoundError("folder", *folder.ParentID)
		}
	}

	folder.ID = r.store.data.id()
	folder.Active = true
	stored := *folder
	stored.DocumentCount = 0
	r.store.data.folders[folder.ID] = stored
	return nil
}

func (r *FolderRepository) GetByID(_ context.Context, id int64) (*docsystem.Folder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f, ok := r.store.data.folders[id]
	if !ok || !f.Active {
		return nil, domain.NewNotFoundError("folder", id)
	}
	return &f, nil
}

func (r *FolderRepository) GetByCode(_ context.Context, code string) (*docsystem.Folder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, f := range r.store.data.folders {
		if f.Active && f.Code == code {
			return &f, nil
		}
	}
	return nil, domain.NewNotFoundError("folder", code)
}

func (r *FolderRepository) Update(_ context.Context, folder *docsystem.Folder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f, ok := r.store.data.folders[folder.ID]
	if !ok || !f.Active {
		return domain.NewNotFoundError("folder", folder.ID)
	}
	f.Name = folder.Name
	f.Description = folder.Description
	f.Icon = folder.Icon
	f.DisplayOrder = folder.DisplayOrder
	f.ModifiedAt = folder.ModifiedAt
	r.store.data.folders[f.ID] = f
	return nil
}

func (r *FolderRepository) SoftDelete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f, ok := r.store.data.folders[id]
	if !ok || !f.Active {
		return domain.NewNotFoundError("folder", id)
	}
	f.Active = false
	r.store.data.folders[id] = f
	return nil
}

func (r *FolderRepository) ListAll(_ context.Context) ([]docsystem.Folder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	counts := make(map[int64]int)
	for _, d := range r.store.data.documents {
		if d.FolderID != nil && !d.Status.IsDeleted() {
			counts[*d.FolderID]++
		}
	}

	out := r.filter(func(f docsystem.Folder) bool { return true })
	for i := range out {
		out[i].DocumentCount = counts[out[i].ID]
	}
	sortByPath(out)
	return out, nil
}

func (r *FolderRepository) ListChildren(_ context.Context, parentID *int64) ([]docsystem.Folder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.filter(func(f docsystem.Folder) bool {
		if parentID == nil {
			return f.ParentID == nil
		}
		return f.ParentID != nil && *f.ParentID == *parentID
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *FolderRepository) Search(_ context.Context, term string) ([]docsystem.Folder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.filter(func(f docsystem.Folder) bool {
		return containsFold(term, f.Code, f.Name, f.Description)
	})
	sortByPath(out)
	return out, nil
}

func (r *FolderRepository) CountActiveDocuments(_ context.Context, folderID int64) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := 0
	for _, d := range r.store.data.documents {
		if d.FolderID != nil && *d.FolderID == folderID && !d.Status.IsDeleted() {
			n++
		}
	}
	return n, nil
}

// filter returns active folders accepted by keep. Callers hold the lock.
func (r *FolderRepository) filter(keep func(docsystem.Folder) bool) []docsystem.Folder {
	out := make([]docsystem.Folder, 0)
	for _, f := range r.store.data.folders {
		if f.Active && keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func sortByPath(folders []docsystem.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		if folders[i].FullPath != folders[j].FullPath {
			return folders[i].FullPath < folders[j].FullPath
		}
		return folders[i].DisplayOrder < folders[j].DisplayOrder
	})
}

// containsFold reports whether any field contains term, ignoring case
func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
