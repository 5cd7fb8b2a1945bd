package bundle

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding written by Encode.
type Format struct {
	// JSON writes indented JSON instead of YAML.
	JSON bool
	// Gzip compresses the document.
	Gzip bool
}

// FormatFor guesses the format from a file name: *.json, *.yaml|*.yml, optionally followed by .gz.
func FormatFor(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	f := Format{}
	if strings.HasSuffix(name, ".gz") {
		f.Gzip = true
		name = strings.TrimSuffix(name, ".gz")
	}
	f.JSON = strings.HasSuffix(name, ".json")
	return f
}

var gzipMagic = []byte{0x1f, 0x8b}

// Decode reads a YAML or JSON bundle, transparently decompressing gzip input.
func Decode(r io.Reader) (*Bundle, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(len(gzipMagic)); err == nil && bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		return decode(zr)
	}
	return decode(br)
}

func decode(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidBundle)
	}

	// JSON documents are valid YAML; yaml.v3 reads both with the same field tags.
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if err := b.normalize(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Encode writes b in the requested format.
func Encode(w io.Writer, b *Bundle, f Format) (err error) {
	if b.Version == 0 {
		b.Version = CurrentVersion
	}

	if f.Gzip {
		zw := gzip.NewWriter(w)
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	}

	if f.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ReadFile decodes the bundle stored at path.
func ReadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes b to path atomically: temp file in the same directory, fsync, rename.
// The format follows the file extension.
func WriteFile(path string, b *Bundle) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure bundle directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := Encode(tmp, b, FormatFor(path)); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing bundle: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
