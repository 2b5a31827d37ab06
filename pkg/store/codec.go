package store

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// record is the on-disk form of a login.
type record struct {
	Secret string `toml:"secret" json:"secret"`
	// Key is the field name used by older files.
	Key string `toml:"key,omitempty" json:"key,omitempty"`
}

type codec interface {
	decode(data []byte) (map[string]record, error)
	encode(records map[string]record) ([]byte, error)
}

func codecFor(path string) codec {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return jsonCodec{}
	}
	return tomlCodec{}
}

type tomlCodec struct{}

func (tomlCodec) decode(data []byte) (map[string]record, error) {
	records := map[string]record{}
	if err := toml.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (tomlCodec) encode(records map[string]record) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonCodec struct{}

func (jsonCodec) decode(data []byte) (map[string]record, error) {
	records := map[string]record{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (jsonCodec) encode(records map[string]record) ([]byte, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
