package strategies

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/roach88/snapcheck/internal/snapshot"
)

// diffContext is the number of unchanged lines shown around each hunk.
const diffContext = 3

// Lines snapshots plain text and compares it line by line.
func Lines() snapshot.Strategy[string, string] {
	return snapshot.Strategy[string, string]{
		Snapshot:      snapshot.Sync(func(s string) (string, error) { return s, nil }),
		Diffing:       LinesDiffing(),
		PathExtension: "txt",
	}
}

// Description snapshots any value through its %+v rendering.
func Description[V any]() snapshot.Strategy[V, string] {
	return snapshot.Pullback(Lines(), func(v V) string {
		return fmt.Sprintf("%+v\n", v)
	})
}

// LinesDiffing stores text verbatim and reports mismatches as a unified diff.
func LinesDiffing() snapshot.Diffing[string] {
	return snapshot.DiffingFunc[string]{
		EncodeFunc:  encodeString,
		DecodeFunc:  decodeString,
		CompareFunc: DiffLines,
	}
}

// DiffLines returns nil when the texts are identical, otherwise a unified
// diff from reference to produced. The patch is attached as well.
func DiffLines(reference, produced string) *snapshot.Difference {
	if reference == produced {
		return nil
	}

	patch := UnifiedDiff(reference, produced)
	return &snapshot.Difference{
		Message: patch,
		Attachments: []snapshot.Attachment{
			{Name: "difference.patch", MediaType: "text/x-diff", Data: []byte(patch)},
		},
	}
}

// UnifiedDiff renders a unified diff between two texts.
func UnifiedDiff(reference, produced string) string {
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(reference),
		B:        difflib.SplitLines(produced),
		FromFile: "reference",
		ToFile:   "produced",
		Context:  diffContext,
	})
	if err != nil || patch == "" {
		return fmt.Sprintf("--- reference\n+++ produced\n-%q\n+%q\n", reference, produced)
	}
	return patch
}

func encodeString(s string) ([]byte, error) {
	return []byte(s), nil
}

func decodeString(b []byte) (string, error) {
	return string(b), nil
}
