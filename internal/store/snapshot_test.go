package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibhub/pkg/models"
)

func TestWriteSnapshot_FourSpaceIndentAndNullCoordinates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, sample()[1:2]))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[\n    {\n        \"id\": 2,"), out)
	assert.Contains(t, out, `"coordinates": null`)
	assert.Contains(t, out, "Élysée")
}

func TestWriteSnapshot_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestSnapshotRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "corpus.json")
	require.NoError(t, SaveSnapshot(path, sample()))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestReadSnapshot_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"not an array":        `{"id": 1}`,
		"unknown distinction": `[{"id": 1, "name": "A", "location": {}, "distinction": {"type": "FOUR_STARS"}, "coordinates": null}]`,
		"missing coordinates": `[{"id": 1, "name": "A", "location": {}, "distinction": {"type": "NONE"}}]`,
		"latitude range":      `[{"id": 1, "name": "A", "location": {}, "distinction": {"type": "NONE"}, "coordinates": {"lat": 100, "lon": 0}}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadSnapshot(strings.NewReader(doc))
			var serr *SnapshotError
			require.ErrorAs(t, err, &serr)
			assert.NotEmpty(t, serr.Errors)
		})
	}
}

func TestOpenJSONFile_LoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, SaveSnapshot(path, sample()))

	jf, err := OpenJSONFile(path)
	require.NoError(t, err)
	got, err := jf.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "x"}]`), 0o644))
	_, err = OpenJSONFile(path)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.Restaurant{sample()[0], sample()[2]}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,name,phone"))
	assert.True(t, strings.HasSuffix(lines[1], ",48.86,2.34"))
	assert.True(t, strings.HasSuffix(lines[2], ",,"))
}
