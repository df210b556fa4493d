package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Marshal renders v as deterministic, indented JSON.
//
// v is first encoded with encoding/json (so struct tags and Marshalers
// apply), then re-printed with:
//  1. Object keys sorted by UTF-16 code units (RFC 8785 order)
//  2. Strings and keys NFC normalized
//  3. No HTML escaping; only quote, backslash and control characters escaped
//  4. Numbers kept exactly as encoding/json wrote them
//  5. Two-space indentation and a trailing newline
func Marshal(v any) ([]byte, error) {
	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical: encode: %w", err)
	}
	return Format(raw.Bytes())
}

// Format re-prints an existing JSON document in canonical form.
func Format(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("canonical: decode: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("canonical: trailing data after JSON value")
	}

	var buf bytes.Buffer
	if err := write(&buf, tree, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, v any, depth int) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case json.Number:
		buf.WriteString(val.String())
	case string:
		writeString(buf, val)
	case []any:
		return writeArray(buf, val, depth)
	case map[string]any:
		return writeObject(buf, val, depth)
	default:
		return fmt.Errorf("canonical: unsupported type %T", v)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, arr []any, depth int) error {
	if len(arr) == 0 {
		buf.WriteString("[]")
		return nil
	}
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, depth+1)
		if err := write(buf, elem, depth+1); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	newline(buf, depth)
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, obj map[string]any, depth int) error {
	if len(obj) == 0 {
		buf.WriteString("{}")
		return nil
	}

	// Keys are normalized before sorting so the order is stable regardless
	// of the input's normalization form.
	normalized := make(map[string]any, len(obj))
	for k, v := range obj {
		normalized[norm.NFC.String(k)] = v
	}
	keys := make([]string, 0, len(normalized))
	for k := range normalized {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, depth+1)
		writeString(buf, k)
		buf.WriteString(": ")
		if err := write(buf, normalized[k], depth+1); err != nil {
			return fmt.Errorf("%q: %w", k, err)
		}
	}
	newline(buf, depth)
	buf.WriteByte('}')
	return nil
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}

// writeString writes a JSON string with RFC 8785 escaping: only the quote,
// the backslash and U+0000..U+001F are escaped. U+2028/U+2029 and HTML
// characters stay literal.
func writeString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

// CompareKeys orders strings by UTF-16 code units, as RFC 8785 requires.
// Go's native string comparison uses UTF-8 bytes and orders supplementary
// plane characters differently.
func CompareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
