package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pkgcompare/pkg/buildinfo"
	"github.com/matzehuels/pkgcompare/pkg/compare"
	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the exported form of a comparison.
type Document struct {
	Tool        string                                 `json:"tool" yaml:"tool"`
	GeneratedAt time.Time                              `json:"generatedAt" yaml:"generatedAt"`
	Packages    []Package                              `json:"packages" yaml:"packages"`
	Failures    map[record.Dimension]map[string]string `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Package is one compared package with its merged dimensions.
type Package struct {
	PURL                 string `json:"purl" yaml:"purl"`
	record.PackageRecord `yaml:",inline"`
}

// NewDocument builds the export document for r.
func NewDocument(r compare.Report) Document {
	merged := r.Merged()
	pkgs := make([]Package, len(merged))
	for i, p := range merged {
		pkgs[i] = Package{PURL: p.PURL(), PackageRecord: p}
	}
	doc := Document{
		Tool:        buildinfo.UserAgent(),
		GeneratedAt: r.GeneratedAt,
		Packages:    pkgs,
	}
	if f := r.Failures(); len(f) > 0 {
		doc.Failures = f
	}
	return doc
}

// WriteJSON encodes the report as indented JSON and writes it to w.
func WriteJSON(r compare.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes the report as YAML and writes it to w.
func WriteYAML(r compare.Report, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Write encodes the report in format f.
func Write(r compare.Report, f Format, w io.Writer) error {
	switch f {
	case FormatJSON:
		return WriteJSON(r, w)
	case FormatYAML:
		return WriteYAML(r, w)
	}
	return pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "unsupported export format %q", f)
}

// FormatFromPath picks the format matching the file extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "cannot infer export format from %q", path)
}

// Export writes the report to path in the format implied by its extension.
func Export(r compare.Report, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(r, f, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
