package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseProject decodes a YAML project document.
// Unknown fields are rejected so typos in hand-written content surface early.
func ParseProject(data []byte) (*Project, error) {
	var p Project
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return &p, nil
}

// LoadProject reads, parses and indexes a project file.
func LoadProject(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	p, err := ParseProject(data)
	if err != nil {
		return nil, fmt.Errorf("parsing file %s: %w", path, err)
	}

	idx, err := NewIndex(p)
	if err != nil {
		return nil, fmt.Errorf("indexing file %s: %w", path, err)
	}
	return idx, nil
}

// MarshalProject encodes a project back to YAML.
func MarshalProject(p *Project) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	return buf.Bytes(), nil
}
