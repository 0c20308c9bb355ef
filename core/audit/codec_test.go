package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChangeSet(t *testing.T) *ChangeSet {
	t.Helper()
	cs, err := NewChangeSet("products", "42", TrailUpdate, "user-1")
	require.NoError(t, err)
	return cs
}

func TestWriteChanges_RoundTrip(t *testing.T) {
	cs := newTestChangeSet(t)

	old := map[string]any{"price": 50.0, "name": "widget"}
	upd := map[string]any{"price": 99.99, "name": "gadget"}
	require.NoError(t, cs.WriteChanges(old, upd))

	assert.Equal(t, old, cs.OldValuesMap())
	assert.Equal(t, upd, cs.NewValuesMap())
	assert.Equal(t, []string{"name", "price"}, cs.Columns())
}

func TestWriteChanges_EmptyMapsProduceAbsentBlobs(t *testing.T) {
	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChanges(map[string]any{}, map[string]any{}))

	// Absent, not "{}": blob columns stay NULL for empty diffs.
	assert.Nil(t, cs.OldValues)
	assert.Nil(t, cs.NewValues)
	assert.Empty(t, cs.OldValuesMap())
	assert.Empty(t, cs.NewValuesMap())
	assert.Nil(t, cs.Columns())
}

func TestWriteChanges_OneSidedDiff(t *testing.T) {
	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChanges(nil, map[string]any{"name": "widget"}))

	assert.Nil(t, cs.OldValues)
	require.NotNil(t, cs.NewValues)

	_, found := cs.ReadOldValue("name")
	assert.False(t, found)
	v, found := cs.ReadNewValue("name")
	assert.True(t, found)
	assert.Equal(t, "widget", v)
}

func TestWriteChangesFromSlices_DirectPath(t *testing.T) {
	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChangesFromSlices(
		[]string{"Price"}, []any{50.0}, []any{99.99}))

	oldVal, found := cs.ReadOldValue("Price")
	assert.True(t, found)
	assert.Equal(t, 50.0, oldVal)

	newVal, found := cs.ReadNewValue("Price")
	assert.True(t, found)
	assert.Equal(t, 99.99, newVal)

	assert.Equal(t, []string{"Price"}, cs.Columns())
}

func TestWriteChangesFromSlices_DirectBlobIsValidJSON(t *testing.T) {
	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChangesFromSlices(
		[]string{"a", "b", "c"},
		[]any{int64(1), "two\nlines", nil},
		[]any{true, `quote " and \ slash`, 3.5}))

	// The concatenated blob must parse exactly like serializer output.
	var oldMap, newMap map[string]any
	require.NoError(t, json.Unmarshal([]byte(*cs.OldValues), &oldMap))
	require.NoError(t, json.Unmarshal([]byte(*cs.NewValues), &newMap))

	assert.Equal(t, map[string]any{"a": 1.0, "b": "two\nlines", "c": nil}, oldMap)
	assert.Equal(t, map[string]any{"a": true, "b": `quote " and \ slash`, "c": 3.5}, newMap)
}

func TestWriteChangesFromSlices_MapFallbackAgrees(t *testing.T) {
	columns := []string{"a", "b", "c", "d", "e"}
	oldVals := []any{1, 2, 3, 4, 5}
	newVals := []any{10, 20, 30, 40, 50}

	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChangesFromSlices(columns, oldVals, newVals))

	// Above the direct-write limit the map path is used, but reads and
	// recorded column order must be indistinguishable.
	assert.Equal(t, columns, cs.Columns())
	for i, col := range columns {
		v, found := cs.ReadOldValue(col)
		assert.True(t, found)
		assert.EqualValues(t, oldVals[i], v)
		v, found = cs.ReadNewValue(col)
		assert.True(t, found)
		assert.EqualValues(t, newVals[i], v)
	}
}

func TestWriteChangesFromSlices_LengthMismatch(t *testing.T) {
	cs := newTestChangeSet(t)
	err := cs.WriteChangesFromSlices([]string{"a", "b"}, []any{1}, []any{1, 2})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWriteChangesFromSlices_Empty(t *testing.T) {
	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChangesFromSlices(nil, nil, nil))
	assert.Nil(t, cs.OldValues)
	assert.Nil(t, cs.NewValues)
}

func TestWriteChangesRaw(t *testing.T) {
	cs := newTestChangeSet(t)
	oldBlob := `{"price":50}`
	newBlob := `{"price":99.99}`
	cs.WriteChangesRaw(&oldBlob, &newBlob)

	v, found := cs.ReadOldValue("price")
	assert.True(t, found)
	assert.Equal(t, 50.0, v)

	assert.Equal(t, map[string]any{"price": 99.99}, cs.NewValuesMap())
}

func TestWriteChangesRaw_NormalizesEmpty(t *testing.T) {
	cs := newTestChangeSet(t)
	empty := ""
	cs.WriteChangesRaw(&empty, nil)
	assert.Nil(t, cs.OldValues)
	assert.Nil(t, cs.NewValues)
}

func TestReadValue_MalformedBlob(t *testing.T) {
	cs := newTestChangeSet(t)
	malformed := `{"price": 50` // truncated
	cs.WriteChangesRaw(&malformed, nil)

	// Malformed blobs read as empty mappings, never errors.
	assert.Empty(t, cs.OldValuesMap())
	_, found := cs.ReadOldValue("price")
	assert.False(t, found)
}

func TestReadValue_SelectiveAgreesWithFull(t *testing.T) {
	blobs := []string{
		`{"s":"plain","n":42,"f":1.5,"b":true,"z":null}`,
		`{"esc":"line\nbreak","s":"x"}`,
		`{"nested":{"inner":1},"s":"after-nested"}`,
		`{"arr":[1,2,3],"s":"after-array"}`,
		`{ "spaced" : "value" , "n" : 7 }`,
		`{"dup-prefix":"a","dup":"b"}`,
	}

	for _, blob := range blobs {
		b := blob
		cs := newTestChangeSet(t)
		cs.WriteChangesRaw(&b, nil)

		full := cs.OldValuesMap()
		for key, want := range full {
			got, found := cs.ReadOldValue(key)
			assert.True(t, found, "blob %s key %s", blob, key)
			assert.Equal(t, want, got, "blob %s key %s", blob, key)
		}

		_, found := cs.ReadOldValue("missing-key")
		assert.False(t, found, "blob %s", blob)
	}
}

func TestReadValue_DuplicateKeyKeepsLastValue(t *testing.T) {
	// Raw blobs may carry duplicate keys; the serializer keeps the last
	// occurrence, and the selective read must return the same value.
	blob := `{"a":1,"a":2}`
	cs := newTestChangeSet(t)
	cs.WriteChangesRaw(&blob, nil)

	v, found := cs.ReadOldValue("a")
	require.True(t, found)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, cs.OldValuesMap()["a"], v)
}

func TestReadValue_TrailingGarbageReadsAsMalformed(t *testing.T) {
	// Both paths must treat these as malformed: no value, empty mapping.
	blobs := []string{
		`{"a":1 garbage}`,
		`{"a":1} garbage`,
		`{} garbage`,
		`{"a":1,"b":2 x}`,
	}
	for _, blob := range blobs {
		b := blob
		cs := newTestChangeSet(t)
		cs.WriteChangesRaw(&b, nil)

		_, found := cs.ReadOldValue("a")
		assert.False(t, found, "blob %s", blob)
		assert.Empty(t, cs.OldValuesMap(), "blob %s", blob)
	}
}

func TestReadValue_EscapedAndNestedFallBack(t *testing.T) {
	// Values the fast scan cannot settle must still come back right via
	// fallback.
	blob := `{"esc":"a\"b","obj":{"k":1},"arr":[true]}`
	cs := newTestChangeSet(t)
	cs.WriteChangesRaw(&blob, nil)

	v, found := cs.ReadOldValue("esc")
	assert.True(t, found)
	assert.Equal(t, `a"b`, v)

	v, found = cs.ReadOldValue("obj")
	assert.True(t, found)
	assert.Equal(t, map[string]any{"k": 1.0}, v)

	v, found = cs.ReadOldValue("arr")
	assert.True(t, found)
	assert.Equal(t, []any{true}, v)
}

func TestReadValue_AbsentBlob(t *testing.T) {
	cs := newTestChangeSet(t)
	_, found := cs.ReadOldValue("anything")
	assert.False(t, found)
	assert.Empty(t, cs.OldValuesMap())
}

func TestReadValue_LargeDiffRoundTrip(t *testing.T) {
	old := map[string]any{}
	upd := map[string]any{}
	for _, key := range []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"} {
		old[key] = "old-" + key
		upd[key] = "new-" + key
	}

	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChanges(old, upd))

	fullOld := cs.OldValuesMap()
	for key := range old {
		got, found := cs.ReadOldValue(key)
		assert.True(t, found)
		assert.Equal(t, fullOld[key], got)
	}
}

func TestConcatBlob_ControlCharacters(t *testing.T) {
	cs := newTestChangeSet(t)
	require.NoError(t, cs.WriteChangesFromSlices(
		[]string{"ctl"}, []any{"bell\x07tab\there"}, []any{"x"}))

	require.NotNil(t, cs.OldValues)
	assert.Contains(t, *cs.OldValues, `\u0007`)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(*cs.OldValues), &m))
	assert.Equal(t, "bell\x07tab\there", m["ctl"])
}
