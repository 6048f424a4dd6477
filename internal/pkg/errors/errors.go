package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrInternal = errors.New("internal")

	// Pipeline errors. Anything that corrupts the trustworthiness of the
	// generated SQL must abort before execution.
	ErrEmbeddingService      = errors.New("embedding service error")
	ErrTruncatedGeneration   = errors.New("model output truncated")
	ErrMalformedGeneration   = errors.New("model output is not valid json")
	ErrUnsafeQuery           = errors.New("unsafe query")
	ErrUnsupportedParameter  = errors.New("query contains positional parameters")
	ErrExecution             = errors.New("query execution failed")
	ErrJudgeEvaluation       = errors.New("judge evaluation failed")
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnsafe(err error) bool {
	return errors.Is(err, ErrUnsafeQuery)
}
