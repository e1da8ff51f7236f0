// Package snapshot reads and writes planner snapshots as YAML, the format
// plannerctl renders offline.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"asiops/internal/planner"
)

// Document is the on-disk form. Now pins the clock for EOT detection so a
// saved snapshot renders the same candidates every time.
type Document struct {
	GeneratedAt string           `yaml:"generatedAt,omitempty"`
	TimeZone    string           `yaml:"timeZone,omitempty"`
	Now         string           `yaml:"now,omitempty"`
	Snapshot    planner.Snapshot `yaml:",inline"`
}

func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &doc, nil
}

func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
