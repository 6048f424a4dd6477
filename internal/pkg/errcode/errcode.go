package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrInternal
	ErrTruncatedGeneration
	ErrMalformedGeneration
	ErrUnsafeQuery
	ErrUnsupportedParameter
	ErrExecution
	ErrAIUnavailable
	ErrTooMany
)
