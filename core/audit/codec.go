package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Below this entry count the blob is built by direct concatenation; the
// fixed overhead of the general serializer dominates for tiny diffs.
const directWriteLimit = 3

// WriteChanges serializes old/new key-value mappings into the record's
// blobs. An empty mapping produces an absent blob, not "{}". Changed
// columns are recorded as the sorted union of both key sets.
func (c *ChangeSet) WriteChanges(oldValues, newValues map[string]any) error {
	oldBlob, err := encodeMap(oldValues)
	if err != nil {
		return err
	}
	newBlob, err := encodeMap(newValues)
	if err != nil {
		return err
	}
	c.OldValues, c.NewValues = oldBlob, newBlob
	c.setColumns(mergedKeys(oldValues, newValues))
	return nil
}

// WriteChangesFromSlices writes parallel column/old/new sequences without
// building intermediate maps. Up to directWriteLimit entries the blobs
// are concatenated directly; larger diffs go through the map path.
func (c *ChangeSet) WriteChangesFromSlices(columns []string, oldValues, newValues []any) error {
	if len(oldValues) != len(columns) || len(newValues) != len(columns) {
		return fmt.Errorf("%w: %d columns with %d old and %d new values",
			ErrInvalidArgument, len(columns), len(oldValues), len(newValues))
	}
	if len(columns) == 0 {
		c.OldValues, c.NewValues = nil, nil
		c.setColumns(nil)
		return nil
	}

	if len(columns) > directWriteLimit {
		oldMap := make(map[string]any, len(columns))
		newMap := make(map[string]any, len(columns))
		for i, col := range columns {
			oldMap[col] = oldValues[i]
			newMap[col] = newValues[i]
		}
		if err := c.WriteChanges(oldMap, newMap); err != nil {
			return err
		}
		c.setColumns(columns) // keep caller order, not the sorted union
		return nil
	}

	oldBlob, err := concatBlob(columns, oldValues)
	if err != nil {
		return err
	}
	newBlob, err := concatBlob(columns, newValues)
	if err != nil {
		return err
	}
	c.OldValues, c.NewValues = oldBlob, newBlob
	c.setColumns(columns)
	return nil
}

// WriteChangesRaw stores two pre-serialized blobs verbatim, bypassing all
// map and slice processing. Empty strings are normalized to absent blobs
// so the absent-blob/empty-mapping invariant holds for raw writers too.
func (c *ChangeSet) WriteChangesRaw(oldBlob, newBlob *string) {
	c.OldValues = normalizeBlob(oldBlob)
	c.NewValues = normalizeBlob(newBlob)
}

// OldValuesMap fully materializes the old-state blob. Absent or
// malformed blobs yield an empty mapping, never an error.
func (c *ChangeSet) OldValuesMap() map[string]any { return decodeBlob(c.OldValues) }

// NewValuesMap fully materializes the new-state blob.
func (c *ChangeSet) NewValuesMap() map[string]any { return decodeBlob(c.NewValues) }

// ReadOldValue returns the old value for one key without materializing
// the whole mapping when the blob permits a fast scan.
func (c *ChangeSet) ReadOldValue(key string) (any, bool) { return readValue(c.OldValues, key) }

// ReadNewValue returns the new value for one key.
func (c *ChangeSet) ReadNewValue(key string) (any, bool) { return readValue(c.NewValues, key) }

func normalizeBlob(blob *string) *string {
	if blob == nil || *blob == "" {
		return nil
	}
	return blob
}

func encodeMap(m map[string]any) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("audit: encode changes: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func decodeBlob(blob *string) map[string]any {
	if blob == nil || *blob == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(*blob), &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func mergedKeys(oldValues, newValues map[string]any) []string {
	if len(oldValues) == 0 && len(newValues) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(oldValues)+len(newValues))
	keys := make([]string, 0, len(oldValues)+len(newValues))
	for k := range oldValues {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range newValues {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// concatBlob builds a JSON object by direct concatenation.
func concatBlob(columns []string, values []any) (*string, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		appendJSONString(&b, col)
		b.WriteByte(':')
		if err := appendJSONValue(&b, values[i]); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	s := b.String()
	return &s, nil
}

func appendJSONValue(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case string:
		appendJSONString(b, val)
	case int:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int8:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int16:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint8:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint16:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(val, 10))
	case float32:
		return appendJSONFloat(b, float64(val))
	case float64:
		return appendJSONFloat(b, val)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("audit: encode changes: %w", err)
		}
		b.Write(raw)
	}
	return nil
}

func appendJSONFloat(b *strings.Builder, f float64) error {
	raw, err := json.Marshal(f)
	if err != nil {
		// NaN or infinity; no JSON representation exists.
		return fmt.Errorf("audit: encode changes: %w", err)
	}
	b.Write(raw)
	return nil
}

// appendJSONString writes s as a JSON string token. Only the characters
// JSON requires escaping for are escaped; everything else is raw UTF-8.
func appendJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"':
			b.WriteString(`\"`)
		case ch == '\\':
			b.WriteString(`\\`)
		case ch == '\n':
			b.WriteString(`\n`)
		case ch == '\r':
			b.WriteString(`\r`)
		case ch == '\t':
			b.WriteString(`\t`)
		case ch < 0x20:
			fmt.Fprintf(b, `\u%04x`, ch)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
}

// readValue answers a single-key lookup. The fast scan handles blobs
// whose relevant tokens are unescaped scalars; anything ambiguous falls
// back to full materialization so both paths always agree.
func readValue(blob *string, key string) (any, bool) {
	if blob == nil || *blob == "" {
		return nil, false
	}
	if v, found, conclusive := scanValue(*blob, key); conclusive {
		return v, found
	}
	v, ok := decodeBlob(blob)[key]
	return v, ok
}

// scanValue walks the top level of a JSON object looking for key. It
// reports conclusive=false whenever the scan cannot unambiguously settle
// the lookup: escaped key text, composite or escaped values, a duplicate
// of the looked-up key (the serializer keeps the last occurrence),
// malformed input. A match never short-circuits the walk; the remainder
// of the object is validated so a value is only returned from blobs the
// full read would also accept.
func scanValue(s, key string) (value any, found, conclusive bool) {
	if strings.ContainsAny(key, `"\`) {
		// The encoded key token would be escaped; raw matching can't see it.
		return nil, false, false
	}

	i := skipSpace(s, 0)
	if i >= len(s) || s[i] != '{' {
		return nil, false, false
	}
	i = skipSpace(s, i+1)
	if i < len(s) && s[i] == '}' {
		if skipSpace(s, i+1) != len(s) {
			return nil, false, false
		}
		return nil, false, true
	}

	for {
		if i >= len(s) || s[i] != '"' {
			return nil, false, false
		}
		keyStart := i + 1
		keyEnd, escaped := scanStringToken(s, keyStart)
		if keyEnd < 0 {
			return nil, false, false
		}
		if escaped {
			// Escaped key text may or may not decode to our key.
			return nil, false, false
		}
		i = skipSpace(s, keyEnd+1)
		if i >= len(s) || s[i] != ':' {
			return nil, false, false
		}
		i = skipSpace(s, i+1)

		if s[keyStart:keyEnd] == key {
			if found {
				return nil, false, false
			}
			v, _, ok := scanScalar(s, i)
			if !ok {
				return nil, false, false
			}
			value, found = v, true
		}

		next, ok := skipJSONValue(s, i)
		if !ok {
			return nil, false, false
		}
		i = skipSpace(s, next)
		if i >= len(s) {
			return nil, false, false
		}
		switch s[i] {
		case ',':
			i = skipSpace(s, i+1)
		case '}':
			if skipSpace(s, i+1) != len(s) {
				return nil, false, false
			}
			return value, found, true
		default:
			return nil, false, false
		}
	}
}

// scanScalar decodes the value starting at i when it is a bare scalar.
// Composite values and escaped strings are left to full materialization.
func scanScalar(s string, i int) (any, bool, bool) {
	if i >= len(s) {
		return nil, false, false
	}
	switch s[i] {
	case '"':
		end, escaped := scanStringToken(s, i+1)
		if end < 0 || escaped {
			return nil, false, false
		}
		return s[i+1 : end], true, true
	case '{', '[':
		return nil, false, false
	default:
		end := i
		for end < len(s) && !isValueDelim(s[end]) {
			end++
		}
		var v any
		if err := json.Unmarshal([]byte(s[i:end]), &v); err != nil {
			return nil, false, false
		}
		return v, true, true
	}
}

// scanStringToken finds the closing quote of a string token whose body
// starts at i. Returns the index of the closing quote and whether any
// escape sequence occurred.
func scanStringToken(s string, i int) (end int, escaped bool) {
	for ; i < len(s); i++ {
		switch s[i] {
		case '\\':
			escaped = true
			i++ // skip the escaped character
		case '"':
			return i, escaped
		}
	}
	return -1, escaped
}

// skipJSONValue advances past one JSON value of any shape starting at i.
func skipJSONValue(s string, i int) (int, bool) {
	if i >= len(s) {
		return 0, false
	}
	switch s[i] {
	case '"':
		end, _ := scanStringToken(s, i+1)
		if end < 0 {
			return 0, false
		}
		return end + 1, true
	case '{', '[':
		depth := 0
		for ; i < len(s); i++ {
			switch s[i] {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return i + 1, true
				}
			case '"':
				end, _ := scanStringToken(s, i+1)
				if end < 0 {
					return 0, false
				}
				i = end
			}
		}
		return 0, false
	default:
		for i < len(s) && !isValueDelim(s[i]) {
			i++
		}
		return i, true
	}
}

func isValueDelim(ch byte) bool {
	switch ch {
	case ',', '}', ']', ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}
