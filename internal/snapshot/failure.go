package snapshot

// FailureKind classifies why Verify did not pass.
// Callers should report Failure.Message verbatim; the kind exists for logs
// and the outcome ledger.
type FailureKind string

const (
	// KindMatched is only used in Outcomes: the artifact matched.
	KindMatched FailureKind = "matched"

	// KindProduction: the value or its rendering failed.
	KindProduction FailureKind = "production"

	// KindTimeout: the bounded wait for the artifact elapsed.
	KindTimeout FailureKind = "timeout"

	// KindProtocol: the producer never delivered an artifact.
	KindProtocol FailureKind = "protocol"

	// KindIO: creating, reading, writing or decoding a file failed.
	KindIO FailureKind = "io"

	// KindMismatch: the comparator found a difference.
	KindMismatch FailureKind = "mismatch"

	// KindRecorded: record mode was on.
	KindRecorded FailureKind = "recorded"

	// KindMissingReference: no reference existed.
	KindMissingReference FailureKind = "missing_reference"
)

// Failure is a non-passing Verify result.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Error implements the error interface so a Failure can travel as an error.
func (f *Failure) Error() string {
	return f.Message
}

func newFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}
