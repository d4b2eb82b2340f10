package ai

import "errors"

var (
	// ErrMissingCredential indicates no usable API credential is configured.
	// Fatal to any generation attempt; never retried.
	ErrMissingCredential = errors.New("generative api credential is not configured")

	// ErrGeneration indicates an upstream call failed or returned no usable
	// payload. Callers substitute a user-visible fallback and keep running.
	ErrGeneration = errors.New("generation failed")
)
