package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	docsysRepo "archivist/internal/domain/repositories/docsystem"
)

// SequenceRepository is an in-memory SequenceRepository
type SequenceRepository struct {
	store *Store
}

func NewSequenceRepository(store *Store) docsysRepo.SequenceRepository {
	return &SequenceRepository{store: store}
}

func (r *SequenceRepository) NextMailSequence(_ context.Context, year int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prefix := fmt.Sprintf("COU-%d-", year)
	return r.next(counterKey{scope: "COU", year: year}, func(yield func(string)) {
		for _, m := range r.store.data.mails {
			yield(m.Code)
		}
	}, prefix), nil
}

func (r *SequenceRepository) NextDocumentSequence(_ context.Context, prefix string, year int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	codePrefix := fmt.Sprintf("%s-%d-", prefix, year)
	return r.next(counterKey{scope: "DOC:" + prefix, year: year}, func(yield func(string)) {
		for _, d := range r.store.data.documents {
			yield(d.Code)
		}
	}, codePrefix), nil
}

// next increments a counter, seeding it from existing codes. Callers hold the lock.
func (r *SequenceRepository) next(key counterKey, codes func(func(string)), codePrefix string) int {
	value, ok := r.store.data.counters[key]
	if !ok {
		codes(func(code string) {
			if !strings.HasPrefix(code, codePrefix) {
				return
			}
			if n, err := strconv.Atoi(strings.TrimPrefix(code, codePrefix)); err == nil && n > value {
				value = n
			}
		})
	}
	value++
	r.store.data.counters[key] = value
	return value
}
