package corpcode

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// jsonc handles the bulk index files; the full enumeration runs to roughly
// a hundred thousand records, where jsoniter is noticeably faster than
// encoding/json.
var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

// Metadata describes how and when an index file was produced.
type Metadata struct {
	TotalCount  int       `json:"total_count"`
	ConvertedAt time.Time `json:"converted_at"`
	Source      string    `json:"source"`
}

// Index is the corp_codes.json document: conversion metadata plus the full
// company enumeration.
type Index struct {
	Metadata  Metadata  `json:"metadata"`
	Companies []Company `json:"companies"`
}

// WriteIndex converts a company list to a JSON index file. Like the archive
// download, the write goes through a temp file and rename so readers never
// see a partial index.
func WriteIndex(path string, companies []Company, source string) error {
	idx := Index{
		Metadata: Metadata{
			TotalCount:  len(companies),
			ConvertedAt: time.Now(),
			Source:      source,
		},
		Companies: companies,
	}

	data, err := jsonc.Marshal(&idx)
	if err != nil {
		return fmt.Errorf("corpcode: encode index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".corpindex-*.tmp")
	if err != nil {
		return fmt.Errorf("corpcode: write index: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("corpcode: write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("corpcode: write index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("corpcode: write index: %w", err)
	}
	return nil
}

// LoadIndex reads a corp_codes.json index file.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpcode: load index %s: %w", path, err)
	}

	var idx Index
	if err := jsonc.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("corpcode: decode index %s: %w", path, err)
	}
	return &idx, nil
}
