package strategies

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/BurntSushi/toml"

	"github.com/roach88/snapcheck/internal/snapshot"
)

// TOML snapshots a struct or map as a TOML document.
// Like YAML, documents that decode to equal tables match.
func TOML[V any]() snapshot.Strategy[V, string] {
	return snapshot.Strategy[V, string]{
		Snapshot: snapshot.Sync(func(v V) (string, error) {
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(v); err != nil {
				return "", fmt.Errorf("toml: encode: %w", err)
			}
			return buf.String(), nil
		}),
		Diffing: snapshot.DiffingFunc[string]{
			EncodeFunc:  encodeString,
			DecodeFunc:  decodeString,
			CompareFunc: compareTOML,
		},
		PathExtension: "toml",
	}
}

func compareTOML(reference, produced string) *snapshot.Difference {
	if reference == produced {
		return nil
	}
	var ref, prod map[string]any
	if err := toml.Unmarshal([]byte(reference), &ref); err == nil {
		if err := toml.Unmarshal([]byte(produced), &prod); err == nil && reflect.DeepEqual(ref, prod) {
			return nil
		}
	}
	return DiffLines(reference, produced)
}
