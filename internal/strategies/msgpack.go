package strategies

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/snapcheck/internal/canonical"
	"github.com/roach88/snapcheck/internal/snapshot"
)

// hexWindow is how many bytes around the first divergence are dumped.
const hexWindow = 32

// Msgpack snapshots a value as MessagePack with sorted map keys.
//
// Comparison is byte-exact. On mismatch the payloads are decoded and
// diffed as canonical JSON when possible, otherwise a hex dump around the
// first differing byte is shown. Both payloads are attached.
func Msgpack[V any]() snapshot.Strategy[V, []byte] {
	return snapshot.Strategy[V, []byte]{
		Snapshot: snapshot.Sync(func(v V) ([]byte, error) {
			var buf bytes.Buffer
			enc := msgpack.NewEncoder(&buf)
			enc.SetSortMapKeys(true)
			if err := enc.Encode(v); err != nil {
				return nil, fmt.Errorf("msgpack: encode: %w", err)
			}
			return buf.Bytes(), nil
		}),
		Diffing: snapshot.DiffingFunc[[]byte]{
			EncodeFunc: func(b []byte) ([]byte, error) { return b, nil },
			DecodeFunc: func(b []byte) ([]byte, error) {
				return bytes.Clone(b), nil
			},
			CompareFunc: compareMsgpack,
		},
		PathExtension: "msgpack",
	}
}

func compareMsgpack(reference, produced []byte) *snapshot.Difference {
	if bytes.Equal(reference, produced) {
		return nil
	}

	attachments := []snapshot.Attachment{
		{Name: "reference.msgpack", MediaType: "application/msgpack", Data: reference},
		{Name: "produced.msgpack", MediaType: "application/msgpack", Data: produced},
	}

	refJSON, refErr := msgpackAsJSON(reference)
	prodJSON, prodErr := msgpackAsJSON(produced)
	if refErr == nil && prodErr == nil && refJSON != prodJSON {
		return &snapshot.Difference{
			Message:     "MessagePack payloads differ:\n\n" + UnifiedDiff(refJSON, prodJSON),
			Attachments: attachments,
		}
	}

	at := firstDivergence(reference, produced)
	var b bytes.Buffer
	fmt.Fprintf(&b, "MessagePack payloads differ at byte %d (reference %d bytes, produced %d bytes)\n\n",
		at, len(reference), len(produced))
	fmt.Fprintf(&b, "reference:\n%s\nproduced:\n%s", hex.Dump(window(reference, at)), hex.Dump(window(produced, at)))
	return &snapshot.Difference{Message: b.String(), Attachments: attachments}
}

func msgpackAsJSON(data []byte) (string, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return "", err
	}
	out, err := canonical.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func firstDivergence(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func window(data []byte, at int) []byte {
	start := max(0, at-hexWindow/2)
	end := min(len(data), start+hexWindow)
	if start > end {
		return nil
	}
	return data[start:end]
}
