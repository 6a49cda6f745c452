package gepa

import "errors"

// Sentinel errors identifying the three error kinds the core distinguishes.
var (
	ErrConfig   = errors.New("gepa: config error")
	ErrProvider = errors.New("gepa: provider error")
	ErrInternal = errors.New("gepa: internal error")
)

// coreError is the shared wrapper behind ConfigError/ProviderError/
// InternalError, mirroring the sentinel-plus-wrapper idiom used for
// domain errors elsewhere in this codebase.
type coreError struct {
	kind    error
	message string
	cause   error
}

func (e *coreError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *coreError) Unwrap() error {
	return e.kind
}

// ConfigError wraps a fatal pre-loop configuration problem: empty test
// set, unknown model name, invalid numeric range. Never triggers an
// `error` event; the caller sees it before any run starts.
func NewConfigError(message string) error {
	return &coreError{kind: ErrConfig, message: message}
}

// ProviderError wraps a contained LLM Gateway failure. The Evaluator
// degrades it to selected=null/correct=false; the Mutator degrades it to
// a no-op mutation. Never re-raised past those boundaries.
func NewProviderError(message string, cause error) error {
	return &coreError{kind: ErrProvider, message: message, cause: cause}
}

// InternalError wraps an unexpected failure inside archive/Pareto/
// scheduler logic. Fatal: the run is marked failed and an `error` event
// is emitted, but the process itself does not crash.
func NewInternalError(message string, cause error) error {
	return &coreError{kind: ErrInternal, message: message, cause: cause}
}

func IsConfigError(err error) bool   { return errors.Is(err, ErrConfig) }
func IsProviderError(err error) bool { return errors.Is(err, ErrProvider) }
func IsInternalError(err error) bool { return errors.Is(err, ErrInternal) }
