package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPrompt        = errors.New("invalid prompt")
	ErrInvalidSize          = errors.New("invalid size")
	ErrUnconfigured         = errors.New("provider not configured")
	ErrModelLoading         = errors.New("model loading")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrRetryLimit           = errors.New("retry limit reached")
	ErrNoSettings           = errors.New("no previous generation to retry")
)

// ErrorKind classifies a failure for user-facing messaging.
type ErrorKind string

const (
	KindNetwork       ErrorKind = "network"
	KindAuth          ErrorKind = "auth"
	KindRateLimit     ErrorKind = "rate_limit"
	KindContentPolicy ErrorKind = "content_policy"
	KindServerError   ErrorKind = "server_error"
	KindTimeout       ErrorKind = "timeout"
	KindUnknown       ErrorKind = "unknown"
	KindInvalidPrompt ErrorKind = "invalid_prompt"
)

// ClassifiedError is the structured failure produced by validation, adapters
// and the orchestrator. It is never mutated after creation.
type ClassifiedError struct {
	Kind     ErrorKind
	Status   int
	Message  string
	Provider string
	Err      error
}

func (e *ClassifiedError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	return msg
}

func (e *ClassifiedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Classify builds a ClassifiedError, a small convenience for adapters.
func Classify(kind ErrorKind, status int, provider, message string, cause error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Status: status, Message: message, Provider: provider, Err: cause}
}

// AsClassified extracts the classification carried by err. Errors that were
// never classified are reported with KindUnknown and their own message.
func AsClassified(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return &ClassifiedError{Kind: KindUnknown, Message: err.Error(), Err: err}
}
