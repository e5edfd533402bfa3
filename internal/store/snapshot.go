package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"bibhub/pkg/models"
)

//go:embed snapshot_schema.json
var snapshotSchema []byte

// SnapshotError lists the schema violations of a snapshot document.
type SnapshotError struct {
	Errors []FieldError
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

func (e *SnapshotError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid snapshot:")
	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, fe.Field, fe.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// WriteSnapshot encodes records as a JSON array indented with 4 spaces.
func WriteSnapshot(w io.Writer, records []models.Restaurant) error {
	if records == nil {
		records = []models.Restaurant{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// ReadSnapshot validates a snapshot document against the snapshot schema and
// decodes it.
func ReadSnapshot(r io.Reader) ([]models.Restaurant, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if err := ValidateSnapshot(data); err != nil {
		return nil, err
	}

	var records []models.Restaurant
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return records, nil
}

// ValidateSnapshot checks data against the snapshot schema.
func ValidateSnapshot(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(snapshotSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}
	if result.Valid() {
		return nil
	}

	serr := &SnapshotError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		serr.Errors = append(serr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return serr
}

// SaveSnapshot writes records to path through a temporary file renamed over
// the target, so readers never see a partial file.
func SaveSnapshot(path string, records []models.Restaurant) error {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, records); err != nil {
		return writeFailed("encode snapshot", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeFailed("create dir", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return writeFailed("create temp", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return writeFailed("write temp", err)
	}
	if err := tmp.Close(); err != nil {
		return writeFailed("close temp", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return writeFailed("rename", err)
	}
	return nil
}

// LoadSnapshot reads and validates the snapshot at path.
func LoadSnapshot(path string) ([]models.Restaurant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// JSONFile serves the corpus from memory and persists every replace to a
// snapshot file. It has an in-memory run log.
type JSONFile struct {
	*Memory
	Path string
}

// OpenJSONFile loads path when it exists and starts empty otherwise.
func OpenJSONFile(path string) (*JSONFile, error) {
	records, err := LoadSnapshot(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return &JSONFile{Memory: NewMemory(records...), Path: path}, nil
}

func (j *JSONFile) ReplaceAll(ctx context.Context, records []models.Restaurant) error {
	if err := ctx.Err(); err != nil {
		return writeFailed("replace", err)
	}
	if err := SaveSnapshot(j.Path, records); err != nil {
		return err
	}
	return j.Memory.ReplaceAll(ctx, records)
}
