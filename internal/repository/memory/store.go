// Package memory provides in-process repository implementations backed by maps.
// They mirror the PostgreSQL repositories closely enough to drive service tests.
package memory

import (
	"context"
	"sync"

	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	"archivist/internal/domain/models/mail"
	"archivist/internal/domain/repositories"
)

type notificationKey struct {
	mailID int64
	userID int64
}

type counterKey struct {
	scope string
	year  int
}

// state is everything a transaction may need to roll back
type state struct {
	users         map[int64]models.User
	folders       map[int64]docsystem.Folder
	documents     map[int64]docsystem.Document
	activities    []docsystem.DocumentActivity
	versions      []docsystem.DocumentVersion
	mails         map[int64]mail.Mail
	notifications map[notificationKey]mail.Notification
	responsible   *mail.ResponsibleAssignment
	counters      map[counterKey]int
	audit         []models.AuditEntry
	nextID        int64
}

func newState() *state {
	return &state{
		users:         make(map[int64]models.User),
		folders:       make(map[int64]docsystem.Folder),
		documents:     make(map[int64]docsystem.Document),
		mails:         make(map[int64]mail.Mail),
		notifications: make(map[notificationKey]mail.Notification),
		counters:      make(map[counterKey]int),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:         make(map[int64]models.User, len(s.users)),
		folders:       make(map[int64]docsystem.Folder, len(s.folders)),
		documents:     make(map[int64]docsystem.Document, len(s.documents)),
		activities:    append([]docsystem.DocumentActivity(nil), s.activities...),
		versions:      append([]docsystem.DocumentVersion(nil), s.versions...),
		mails:         make(map[int64]mail.Mail, len(s.mails)),
		notifications: make(map[notificationKey]mail.Notification, len(s.notifications)),
		counters:      make(map[counterKey]int, len(s.counters)),
		audit:         append([]models.AuditEntry(nil), s.audit...),
		nextID:        s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.folders {
		c.folders[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v
	}
	for k, v := range s.mails {
		c.mails[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	if s.responsible != nil {
		r := *s.responsible
		c.responsible = &r
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is the shared backing state of every in-memory repository
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: newState()}
}

// AddUser seeds a user and returns it with its assigned ID
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		u.ID = s.data.id()
	} else if u.ID > s.data.nextID {
		s.data.nextID = u.ID
	}
	s.data.users[u.ID] = u
	return u
}

// AuditEntries returns a copy of the recorded audit trail
func (s *Store) AuditEntries() []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditEntry(nil), s.data.audit...)
}

// Activities returns a copy of every document activity row
func (s *Store) Activities() []docsystem.DocumentActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]docsystem.DocumentActivity(nil), s.data.activities...)
}

// NotificationCount returns the number of stored notifications
func (s *Store) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.notifications)
}

// TransactionManager snapshots the store and restores it when fn fails.
// Transactions are serialized.
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a snapshot-based transaction manager
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

type txMarker struct{}

// ExecTx runs fn; on error every change made since the snapshot is discarded
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	tm.store.mu.Lock()
	snapshot := tm.store.data.clone()
	tm.store.mu.Unlock()

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		tm.store.mu.Lock()
		tm.store.data = snapshot
		tm.store.mu.Unlock()
		return err
	}

	return nil
}
