package strategies

import (
	"bytes"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/roach88/snapcheck/internal/snapshot"
)

// YAML snapshots a value as a YAML document with two-space indentation.
// Documents that decode to equal values match even if their text differs
// (comments, quoting, key order).
func YAML[V any]() snapshot.Strategy[V, string] {
	return snapshot.Strategy[V, string]{
		Snapshot: snapshot.Sync(func(v V) (string, error) {
			var buf bytes.Buffer
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return "", fmt.Errorf("yaml: encode: %w", err)
			}
			if err := enc.Close(); err != nil {
				return "", fmt.Errorf("yaml: encode: %w", err)
			}
			return buf.String(), nil
		}),
		Diffing: snapshot.DiffingFunc[string]{
			EncodeFunc:  encodeString,
			DecodeFunc:  decodeString,
			CompareFunc: compareYAML,
		},
		PathExtension: "yaml",
	}
}

func compareYAML(reference, produced string) *snapshot.Difference {
	if reference == produced {
		return nil
	}
	var ref, prod any
	if yaml.Unmarshal([]byte(reference), &ref) == nil &&
		yaml.Unmarshal([]byte(produced), &prod) == nil &&
		reflect.DeepEqual(ref, prod) {
		return nil
	}
	return DiffLines(reference, produced)
}
