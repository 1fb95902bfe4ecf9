package services

import "context"

// FileStorage moves raw files between the local cache and durable storage
type FileStorage interface {
	// Store copies the local file into durable storage under a key derived from code
	Store(ctx context.Context, localPath, code string) (string, error)

	// Retrieve copies a stored file to destPath
	Retrieve(ctx context.Context, serverPath, destPath string) error

	// Exists reports whether serverPath is present in durable storage
	Exists(ctx context.Context, serverPath string) (bool, error)

	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, serverPath string) error

	// Hash returns the hex SHA-256 of a local file
	Hash(localPath string) (string, error)

	// LocalExists reports whether a local file exists and is a regular file
	LocalExists(localPath string) bool
}
