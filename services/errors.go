package services

import (
	"errors"
	"fmt"
)

// LoadError reports that the source document is missing or unreadable.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IndexError reports an embedding or store failure during ingestion.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index: %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// RetrievalError reports a transport failure while embedding a query or
// searching the store. An empty result is not a RetrievalError.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve: %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// SynthesisError reports that the language model could not be reached.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// TurnErrorMessage renders a query-time failure as a chat answer.
func TurnErrorMessage(err error) string {
	var synthErr *SynthesisError
	if errors.As(err, &synthErr) {
		return fmt.Sprintf("Model error: %v", synthErr.Err)
	}
	var retrErr *RetrievalError
	if errors.As(err, &retrErr) {
		return fmt.Sprintf("Search error: %v", retrErr.Err)
	}
	return fmt.Sprintf("Error: %v", err)
}
