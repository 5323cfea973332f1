package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound indicates an operation targeted a fragment, seed or
	// narrative that does not exist
	ErrNotFound = goerr.New("not found")

	// ErrInvalidArgument indicates required input was empty or malformed
	ErrInvalidArgument = goerr.New("invalid argument")

	// ErrServiceUnavailable indicates the generation or embedding backend
	// was unreachable or returned an error. Extraction and retrieval absorb
	// this locally and degrade; it never reaches the conversational path.
	ErrServiceUnavailable = goerr.New("service unavailable")

	// ErrMalformedEmbedding indicates a stored embedding buffer could not
	// be decoded
	ErrMalformedEmbedding = goerr.New("malformed embedding")

	ErrInvalidEra = goerr.New("invalid era")
)
