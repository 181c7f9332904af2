package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks YAML for .yaml/.yml paths and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Encode writes the document in the given format.
func Encode(w io.Writer, md *StoredDatabaseMetadata, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(md); err != nil {
			return fmt.Errorf("failed to encode metadata as yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(md); err != nil {
			return fmt.Errorf("failed to encode metadata as json: %w", err)
		}
		return nil
	}
}

// Decode reads a document and checks the fields every consumer relies on.
func Decode(r io.Reader, f Format) (*StoredDatabaseMetadata, error) {
	var md StoredDatabaseMetadata
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&md); err != nil {
			return nil, fmt.Errorf("failed to decode metadata yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&md); err != nil {
			return nil, fmt.Errorf("failed to decode metadata json: %w", err)
		}
	}
	if err := md.validate(); err != nil {
		return nil, err
	}
	return &md, nil
}

func (md *StoredDatabaseMetadata) validate() error {
	if !md.CaseSensitivity.Valid() {
		return fmt.Errorf("invalid metadata document: unknown case sensitivity %q", md.CaseSensitivity)
	}
	seen := make(map[relKey]bool, len(md.RelationMetadatas))
	for _, rm := range md.RelationMetadatas {
		if rm.RelationId.Name == "" {
			return fmt.Errorf("invalid metadata document: relation without a name")
		}
		k := rm.RelationId.key()
		if seen[k] {
			return fmt.Errorf("invalid metadata document: relation %s is listed more than once", rm.RelationId)
		}
		seen[k] = true
	}
	for _, fk := range md.ForeignKeys {
		if len(fk.Components) == 0 {
			return fmt.Errorf("invalid metadata document: foreign key %s has no components", &fk)
		}
	}
	if md.RelationMetadatas == nil {
		md.RelationMetadatas = []RelMetadata{}
	}
	if md.ForeignKeys == nil {
		md.ForeignKeys = []ForeignKey{}
	}
	return nil
}

// ReadFile loads a document written by WriteFile.
func ReadFile(path string) (*StoredDatabaseMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatForPath(path))
}

// WriteFile writes the document to path, or to stdout when path is "-". The file is replaced
// only once the whole document has been encoded.
func WriteFile(path string, md *StoredDatabaseMetadata) error {
	var buf bytes.Buffer
	if err := Encode(&buf, md, FormatForPath(path)); err != nil {
		return err
	}

	if path == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}
