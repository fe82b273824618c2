package domain

import "errors"

var (
	// ErrValidation signals malformed, empty, or oversized transaction input.
	ErrValidation = errors.New("validation failed")
	// ErrEmbeddingProvider signals an embedding provider failure during index build.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationProvider signals a generation provider failure.
	ErrGenerationProvider = errors.New("generation provider error")
	// ErrPersistence signals a document store failure after generation succeeded.
	ErrPersistence = errors.New("persistence error")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrAlreadyExists signals a duplicate storage key on a create-only write.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound signals a missing archived transaction.
	ErrNotFound = errors.New("not found")
)
