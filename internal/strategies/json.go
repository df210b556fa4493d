package strategies

import (
	"github.com/roach88/snapcheck/internal/canonical"
	"github.com/roach88/snapcheck/internal/snapshot"
)

// JSON snapshots any encoding/json-compatible value as canonical JSON.
// Stored references are re-canonicalized on decode, so hand edits that
// only change whitespace or key order still match.
func JSON[V any]() snapshot.Strategy[V, string] {
	return snapshot.Strategy[V, string]{
		Snapshot: snapshot.Sync(func(v V) (string, error) {
			data, err := canonical.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}),
		Diffing: snapshot.DiffingFunc[string]{
			EncodeFunc: encodeString,
			DecodeFunc: func(b []byte) (string, error) {
				data, err := canonical.Format(b)
				if err != nil {
					return "", err
				}
				return string(data), nil
			},
			CompareFunc: DiffLines,
		},
		PathExtension: "json",
	}
}
