package snapshot

// Codec converts an artifact to and from the bytes stored on disk.
// The encoding is owned entirely by the format; the engine never inspects it.
type Codec[F any] interface {
	Encode(artifact F) ([]byte, error)
	Decode(data []byte) (F, error)
}

// Comparator decides whether a produced artifact matches its reference.
// A nil Difference means the two match.
type Comparator[F any] interface {
	Compare(reference, produced F) *Difference
}

// Diffing is the codec + comparator pair for one artifact format.
type Diffing[F any] interface {
	Codec[F]
	Comparator[F]
}

// Difference describes a mismatch found by a Comparator.
type Difference struct {
	// Message is the format-specific failure text. The engine trims
	// surrounding whitespace before embedding it in the failure report.
	Message string

	// Attachments are supplementary artifacts (e.g. a difference image)
	// surfaced to an interactive host only.
	Attachments []Attachment
}

// Attachment is a named blob surfaced alongside a mismatch.
type Attachment struct {
	Name      string
	MediaType string
	Data      []byte
}

// DiffingFunc adapts plain functions to the Diffing interface.
type DiffingFunc[F any] struct {
	EncodeFunc  func(F) ([]byte, error)
	DecodeFunc  func([]byte) (F, error)
	CompareFunc func(reference, produced F) *Difference
}

// Encode implements Codec.
func (d DiffingFunc[F]) Encode(artifact F) ([]byte, error) {
	return d.EncodeFunc(artifact)
}

// Decode implements Codec.
func (d DiffingFunc[F]) Decode(data []byte) (F, error) {
	return d.DecodeFunc(data)
}

// Compare implements Comparator.
func (d DiffingFunc[F]) Compare(reference, produced F) *Difference {
	return d.CompareFunc(reference, produced)
}
