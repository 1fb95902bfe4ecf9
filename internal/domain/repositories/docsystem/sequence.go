package docsystem

import "context"

// SequenceRepository hands out per-scope, per-year counters.
// Each call atomically increments and returns the next value. A counter that
// does not exist yet is seeded from the highest suffix already in use.
type SequenceRepository interface {
	// NextMailSequence returns the next sequence number for COU-<year>-NNNN codes
	NextMailSequence(ctx context.Context, year int) (int, error)

	// NextDocumentSequence returns the next number for <prefix>-<year>-NNNN codes.
	// The counter belongs to the prefix, so folders sharing initials share it.
	NextDocumentSequence(ctx context.Context, prefix string, year int) (int, error)
}
