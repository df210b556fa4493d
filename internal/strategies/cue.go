package strategies

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"

	"github.com/roach88/snapcheck/internal/snapshot"
)

// CUEValue snapshots a CUE value as formatted, concrete CUE source.
//
// Two sources match when they evaluate to equal CUE values, so formatting
// and field order changes are tolerated. Sources that fail to compile fall
// back to a textual comparison.
func CUEValue() snapshot.Strategy[cue.Value, string] {
	return snapshot.Strategy[cue.Value, string]{
		Snapshot: snapshot.Sync(renderCUE),
		Diffing: snapshot.DiffingFunc[string]{
			EncodeFunc:  encodeString,
			DecodeFunc:  decodeString,
			CompareFunc: compareCUE,
		},
		PathExtension: "cue",
	}
}

// CUE snapshots any Go value by encoding it into CUE first.
// Each snapshot uses its own cue.Context; contexts are not shared across
// goroutines.
func CUE[V any]() snapshot.Strategy[V, string] {
	return snapshot.Pullback(CUEValue(), func(v V) cue.Value {
		return cuecontext.New().Encode(v)
	})
}

func renderCUE(v cue.Value) (string, error) {
	if err := v.Err(); err != nil {
		return "", fmt.Errorf("cue: %s", errors.Details(err, nil))
	}
	node := v.Syntax(cue.Final(), cue.Concrete(true))
	src, err := format.Node(node)
	if err != nil {
		return "", fmt.Errorf("cue: format: %w", err)
	}
	if len(src) == 0 || src[len(src)-1] != '\n' {
		src = append(src, '\n')
	}
	return string(src), nil
}

func compareCUE(reference, produced string) *snapshot.Difference {
	if reference == produced {
		return nil
	}

	ctx := cuecontext.New()
	ref := ctx.CompileString(reference, cue.Filename("reference.cue"))
	prod := ctx.CompileString(produced, cue.Filename("produced.cue"))
	if ref.Err() == nil && prod.Err() == nil && ref.Equals(prod) {
		return nil
	}
	return DiffLines(reference, produced)
}
