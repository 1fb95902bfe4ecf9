package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"archivist/internal/config"
	"archivist/internal/domain"
	"archivist/internal/domain/models/docsystem"
	docsysRepo "archivist/internal/domain/repositories/docsystem"
)

// DocumentRepository is an in-memory DocumentRepository
type DocumentRepository struct {
	store *Store
}

func NewDocumentRepository(store *Store) docsysRepo.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(_ context.Context, doc *docsystem.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, d := range r.store.data.documents {
		if d.Code == doc.Code {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document code %q is already taken", doc.Code),
				ResourceType: "document",
				ResourceID:   doc.Code,
			}
		}
	}
	if doc.FolderID != nil {
		if _, ok := r.store.data.folders[*doc.FolderID]; !ok {
			return domain.NewNotFoundError("folder", *doc.FolderID)
		}
	}

	doc.ID = r.store.data.id()
	r.store.data.documents[doc.ID] = *doc
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id int64) (*docsystem.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.data.documents[id]
	if !ok {
		return nil, domain.NewNotFoundError("document", id)
	}
	r.join(&d)
	return &d, nil
}

func (r *DocumentRepository) Update(_ context.Context, doc *docsystem.Document) error {
	return r.mutate(doc.ID, false, func(d *docsystem.Document) {
		d.Title = doc.Title
		d.DocumentType = doc.DocumentType
		d.Description = doc.Description
		d.Keywords = doc.Keywords
		d.Confidential = doc.Confidential
		d.Status = doc.Status
		d.ModifiedBy = doc.ModifiedBy
		d.ModifiedAt = doc.ModifiedAt
	})
}

func (r *DocumentRepository) SetServerPath(_ context.Context, id int64, serverPath string) error {
	return r.mutate(id, false, func(d *docsystem.Document) {
		d.ServerPath = serverPath
	})
}

func (r *DocumentRepository) SetStatus(_ context.Context, id int64, status docsystem.DocumentStatus, userID int64) error {
	return r.mutate(id, false, func(d *docsystem.Document) {
		d.Status = status
		d.ModifiedBy = &userID
		d.ModifiedAt = time.Now().UTC()
	})
}

func (r *DocumentRepository) Move(_ context.Context, id int64, folderID *int64, userID int64) error {
	if err := r.checkFolder(folderID); err != nil {
		return err
	}
	return r.mutate(id, true, func(d *docsystem.Document) {
		d.FolderID = folderID
		d.ModifiedBy = &userID
		d.ModifiedAt = time.Now().UTC()
	})
}

func (r *DocumentRepository) Archive(_ context.Context, id, folderID int64, at time.Time, userID int64) error {
	if err := r.checkFolder(&folderID); err != nil {
		return err
	}
	return r.mutate(id, true, func(d *docsystem.Document) {
		d.Archived = true
		d.ArchivedAt = &at
		d.FolderID = &folderID
		d.Status = docsystem.DocumentStatusArchived
		d.ModifiedBy = &userID
		d.ModifiedAt = at
	})
}

func (r *DocumentRepository) HardDelete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.documents[id]; !ok {
		return domain.NewNotFoundError("document", id)
	}
	for _, m := range r.store.data.mails {
		if m.DocumentID == id {
			return &domain.ConflictError{
				Message:      "document is still referenced by a mail record",
				ResourceType: "document",
				ResourceID:   fmt.Sprint(id),
			}
		}
	}

	delete(r.store.data.documents, id)

	activities := r.store.data.activities[:0]
	for _, a := range r.store.data.activities {
		if a.DocumentID != id {
			activities = append(activities, a)
		}
	}
	r.store.data.activities = activities

	versions := r.store.data.versions[:0]
	for _, v := range r.store.data.versions {
		if v.DocumentID != id {
			versions = append(versions, v)
		}
	}
	r.store.data.versions = versions
	return nil
}

func (r *DocumentRepository) List(_ context.Context, filter docsysRepo.DocumentFilter) ([]docsystem.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.collect(func(d docsystem.Document) bool {
		if filter.FolderID != nil && (d.FolderID == nil || *d.FolderID != *filter.FolderID) {
			return false
		}
		return filter.Status == "" || d.Status == filter.Status
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *DocumentRepository) Search(_ context.Context, term string, limit int) ([]docsystem.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.collect(func(d docsystem.Document) bool {
		return containsFold(term, d.Code, d.Title, d.Description, d.Keywords)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModifiedAt.After(out[j].ModifiedAt) })
	return page(out, limit, 0), nil
}

func (r *DocumentRepository) AddActivity(_ context.Context, a *docsystem.DocumentActivity) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.documents[a.DocumentID]; !ok {
		return domain.NewNotFoundError("document", a.DocumentID)
	}
	a.ID = r.store.data.id()
	r.store.data.activities = append(r.store.data.activities, *a)
	return nil
}

func (r *DocumentRepository) ListActivities(_ context.Context, documentID int64) ([]docsystem.DocumentActivity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]docsystem.DocumentActivity, 0)
	for i := len(r.store.data.activities) - 1; i >= 0; i-- {
		if a := r.store.data.activities[i]; a.DocumentID == documentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *DocumentRepository) AddVersion(_ context.Context, v *docsystem.DocumentVersion) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	latest := 0
	for _, existing := range r.store.data.versions {
		if existing.DocumentID == v.DocumentID && existing.Version > latest {
			latest = existing.Version
		}
	}
	v.ID = r.store.data.id()
	v.Version = latest + 1
	r.store.data.versions = append(r.store.data.versions, *v)
	return nil
}

// mutate applies fn to a stored document. liveOnly rejects deleted documents.
func (r *DocumentRepository) mutate(id int64, liveOnly bool, fn func(*docsystem.Document)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.data.documents[id]
	if !ok || (liveOnly && d.Status.IsDeleted()) {
		return domain.NewNotFoundError("document", id)
	}
	fn(&d)
	r.store.data.documents[id] = d
	return nil
}

func (r *DocumentRepository) checkFolder(folderID *int64) error {
	if folderID == nil {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.folders[*folderID]; !ok {
		return domain.NewNotFoundError("folder", *folderID)
	}
	return nil
}

// collect returns joined, non-deleted documents accepted by keep. Callers hold the lock.
func (r *DocumentRepository) collect(keep func(docsystem.Document) bool) []docsystem.Document {
	out := make([]docsystem.Document, 0)
	for _, d := range r.store.data.documents {
		if d.Status.IsDeleted() || !keep(d) {
			continue
		}
		r.join(&d)
		out = append(out, d)
	}
	return out
}

// join fills the display fields. Callers hold the lock.
func (r *DocumentRepository) join(d *docsystem.Document) {
	if u, ok := r.store.data.users[d.CreatedBy]; ok {
		d.AuthorName = u.DisplayName()
	}
	if d.FolderID != nil {
		if f, ok := r.store.data.folders[*d.FolderID]; ok {
			d.FolderCode = f.Code
			d.FolderName = f.Name
			d.FolderIcon = f.Icon
		}
	}
}

func page[T any](items []T, limit, offset int) []T {
	limit = config.ClampPageSize(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return make([]T, 0)
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
