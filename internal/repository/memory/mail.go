package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"archivist/internal/config"
	"archivist/internal/domain"
	"archivist/internal/domain/models/mail"
	mailRepo "archivist/internal/domain/repositories/mail"
)

// MailRepository is an in-memory MailRepository
type MailRepository struct {
	store *Store
}

func NewMailRepository(store *Store) mailRepo.MailRepository {
	return &MailRepository{store: store}
}

func (r *MailRepository) Create(_ context.Context, m *mail.Mail) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.data.mails {
		if existing.Code == m.Code {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("mail code %q is already taken", m.Code),
				ResourceType: "mail",
				ResourceID:   m.Code,
			}
		}
	}
	if _, ok := r.store.data.documents[m.DocumentID]; !ok {
		return domain.NewValidationError("document_id", fmt.Sprintf("document %d does not exist", m.DocumentID))
	}

	m.ID = r.store.data.id()
	r.store.data.mails[m.ID] = *m
	return nil
}

func (r *MailRepository) GetByID(_ context.Context, id int64) (*mail.Mail, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.data.mails[id]
	if !ok {
		return nil, domain.NewNotFoundError("mail", id)
	}
	r.join(&m)
	return &m, nil
}

func (r *MailRepository) Update(_ context.Context, m *mail.Mail) error {
	return r.mutate(m.ID, "", func(stored *mail.Mail) {
		stored.Subject = m.Subject
		stored.Sender = m.Sender
		stored.Recipient = m.Recipient
		stored.Reference = m.Reference
		stored.Priority = m.Priority
		stored.Observations = m.Observations
		stored.Confidential = m.Confidential
		stored.ModifiedAt = m.ModifiedAt
	})
}

func (r *MailRepository) UpdateStatus(_ context.Context, id int64, from, to mail.Status) error {
	return r.mutate(id, from, func(m *mail.Mail) {
		m.Status = to
		m.ModifiedAt = time.Now().UTC()
	})
}

func (r *MailRepository) MarkArchived(_ context.Context, id int64, at time.Time) error {
	return r.mutate(id, mail.StatusProcessed, func(m *mail.Mail) {
		m.Status = mail.StatusArchived
		m.ArchivedAt = &at
		m.ModifiedAt = at
	})
}

func (r *MailRepository) List(_ context.Context, filter mailRepo.MailFilter) ([]mail.Mail, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.collect(func(m mail.Mail) bool {
		return filter.Status == nil || m.Status == *filter.Status
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *MailRepository) Search(_ context.Context, term string) ([]mail.Mail, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.collect(func(m mail.Mail) bool {
		return containsFold(term, m.Code, m.Subject, m.Sender, m.Recipient)
	})
	return page(out, config.MaxPageSize, 0), nil
}

// mutate applies fn when the stored status equals expect. An empty expect
// accepts any status except ARCHIVED.
func (r *MailRepository) mutate(id int64, expect mail.Status, fn func(*mail.Mail)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.data.mails[id]
	if !ok {
		return domain.NewNotFoundError("mail", id)
	}
	if (expect != "" && m.Status != expect) || (expect == "" && m.Status == mail.StatusArchived) {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("mail %d changed concurrently and is now %s", id, m.Status),
			ResourceType: "mail",
			ResourceID:   fmt.Sprint(id),
			State:        string(m.Status),
		}
	}
	fn(&m)
	r.store.data.mails[id] = m
	return nil
}

// collect returns joined mail accepted by keep, newest first. Callers hold the lock.
func (r *MailRepository) collect(keep func(mail.Mail) bool) []mail.Mail {
	out := make([]mail.Mail, 0)
	for _, m := range r.store.data.mails {
		if keep(m) {
			r.join(&m)
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *MailRepository) join(m *mail.Mail) {
	if d, ok := r.store.data.documents[m.DocumentID]; ok {
		m.DocumentCode = d.Code
		m.DocumentTitle = d.Title
	}
}

// NotificationRepository is an in-memory NotificationRepository
type NotificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) mailRepo.NotificationRepository {
	return &NotificationRepository{store: store}
}

func (r *NotificationRepository) GetResponsible(_ context.Context) (*mail.ResponsibleAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.data.responsible == nil {
		return nil, nil
	}
	a := *r.store.data.responsible
	return &a, nil
}

func (r *NotificationRepository) SetResponsible(_ context.Context, a *mail.ResponsibleAssignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *a
	r.store.data.responsible = &stored
	return nil
}

func (r *NotificationRepository) ClearResponsible(_ context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.data.responsible = nil
	return nil
}

func (r *NotificationRepository) Insert(_ context.Context, n *mail.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.mails[n.MailID]; !ok {
		return domain.NewNotFoundError("mail", n.MailID)
	}
	key := notificationKey{mailID: n.MailID, userID: n.UserID}
	if _, exists := r.store.data.notifications[key]; exists {
		return nil
	}
	stored := *n
	stored.Read = false
	stored.ReadAt = nil
	r.store.data.notifications[key] = stored
	return nil
}

func (r *NotificationRepository) Get(_ context.Context, mailID, userID int64) (*mail.Notification, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n, ok := r.store.data.notifications[notificationKey{mailID: mailID, userID: userID}]
	if !ok {
		return nil, domain.NewNotFoundError("notification", fmt.Sprintf("%d/%d", mailID, userID))
	}
	return &n, nil
}

func (r *NotificationRepository) ListForUser(_ context.Context, userID int64, unreadOnly bool) ([]mail.NotificationView, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	views := make([]mail.NotificationView, 0)
	for key, n := range r.store.data.notifications {
		if key.userID != userID || (unreadOnly && n.Read) {
			continue
		}
		m, ok := r.store.data.mails[key.mailID]
		if !ok {
			continue
		}
		views = append(views, mail.NotificationView{
			MailID:     m.ID,
			MailCode:   m.Code,
			Subject:    m.Subject,
			Sender:     m.Sender,
			Type:       m.Type,
			Priority:   m.Priority,
			Status:     m.Status,
			MailDate:   m.MailDate,
			Read:       n.Read,
			NotifiedAt: n.NotifiedAt,
			ReadAt:     n.ReadAt,
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].NotifiedAt.Equal(views[j].NotifiedAt) {
			return views[i].NotifiedAt.After(views[j].NotifiedAt)
		}
		return views[i].MailID > views[j].MailID
	})
	return views, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, userID int64) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := 0
	for key, notif := range r.store.data.notifications {
		if key.userID == userID && !notif.Read {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, mailID, userID int64, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := notificationKey{mailID: mailID, userID: userID}
	n, ok := r.store.data.notifications[key]
	if !ok || n.Read {
		return nil
	}
	n.Read = true
	n.ReadAt = &at
	r.store.data.notifications[key] = n
	return nil
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, userID int64, at time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	changed := 0
	for key, n := range r.store.data.notifications {
		if key.userID != userID || n.Read {
			continue
		}
		n.Read = true
		n.ReadAt = &at
		r.store.data.notifications[key] = n
		changed++
	}
	return changed, nil
}
