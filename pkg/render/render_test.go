package render

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pkgcompare/pkg/compare"
	"github.com/matzehuels/pkgcompare/pkg/panel"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

func TestCard(t *testing.T) {
	tests := []struct {
		name    string
		rec     record.PackageRecord
		want    []string
		notWant []string
	}{
		{
			name: "full",
			rec: record.PackageRecord{
				Name:        "lodash",
				Version:     "4.17.21",
				Description: "Lodash modular utilities.",
				Author:      "John-David Dalton",
				License:     "MIT",
				Keywords:    []string{"modules", "stdlib", "util", "a", "b", "c", "d"},
				Repository:  "https://github.com/lodash/lodash",
				CreatedAt:   time.Date(2012, 4, 23, 0, 0, 0, 0, time.UTC),
				Downloads:   &record.Downloads{Weekly: 45000000},
			},
			want: []string{"lodash", "v4.17.21", "John-David Dalton", "MIT", "modules", "+2", "Apr 23, 2012", "45,000,000/week", "github.com/lodash/lodash"},
			notWant: []string{"non-SPDX", " c "},
		},
		{
			name:    "fallbacks",
			rec:     record.PackageRecord{Name: "bare"},
			want:    []string{"bare", "Unknown", "No license"},
			notWant: []string{"/week", "Keywords", "Repo"},
		},
		{
			name: "non-spdx license",
			rec:  record.PackageRecord{Name: "odd", License: "SEE LICENSE IN LICENSE.txt"},
			want: []string{"non-SPDX"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Card(tt.rec)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("unexpected %q in:\n%s", w, out)
				}
			}
		})
	}
}

func TestCardsEmpty(t *testing.T) {
	if out := Cards(nil); !strings.Contains(out, "No packages selected") {
		t.Errorf("Cards(nil) = %q", out)
	}
}

func TestSizePanel(t *testing.T) {
	s := panel.State{
		Dimension: record.DimensionSize,
		Records: []record.PackageRecord{
			{Name: "lodash", Size: &record.Size{Minified: 70000, Gzip: 25000, TotalWithDependencies: 71024}},
			{Name: "flaky"},
		},
		Failed: map[string]string{"flaky": "Failed to fetch size data for flaky"},
	}
	out := SizePanel(s)
	for _, w := range []string{"Bundle size", "68.36 KB", "24.41 KB", "69.36 KB", "minified", "gzip", "Failed to fetch size data for flaky"} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q in:\n%s", w, out)
		}
	}
}

func TestDownloadsPanel(t *testing.T) {
	s := panel.State{
		Dimension: record.DimensionDownloads,
		Records: []record.PackageRecord{
			{Name: "lodash", Downloads: &record.Downloads{Weekly: 45_000_000, Monthly: 190_000_000, Total: 1_234_567_890}},
			{Name: "axios", Downloads: &record.Downloads{Weekly: 12_345}},
		},
	}
	out := DownloadsPanel(s)
	for _, w := range []string{"Downloads", "45,000,000", "190,000,000", "1,234,567,890", "45M", "12K"} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q in:\n%s", w, out)
		}
	}
}

func TestVersionPanel(t *testing.T) {
	s := panel.State{
		Dimension: record.DimensionVersion,
		Records: []record.PackageRecord{
			{Name: "axios", Version: "1.7.2", Dependencies: map[string]string{"follow-redirects": "^1.15.6"}, PeerDependencies: map[string]string{}},
			{Name: "lodash", Version: "4.17.21", Dependencies: map[string]string{}, PeerDependencies: map[string]string{}},
			{Name: "pending"},
		},
	}
	out := VersionPanel(s)
	for _, w := range []string{"axios", "v1.7.2", "Dependencies:", "follow-redirects: ^1.15.6", "No dependencies"} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q in:\n%s", w, out)
		}
	}
	for _, w := range []string{"Peer dependencies", "pending"} {
		if strings.Contains(out, w) {
			t.Errorf("unexpected %q in:\n%s", w, out)
		}
	}
}

func TestPanelLoadingAndEmpty(t *testing.T) {
	loading := Panel(panel.State{Dimension: record.DimensionSize, Loading: true})
	if !strings.Contains(loading, "loading") {
		t.Errorf("loading panel = %q", loading)
	}
	empty := Panel(panel.State{Dimension: record.DimensionDownloads})
	if !strings.Contains(empty, "No packages selected") {
		t.Errorf("empty panel = %q", empty)
	}
}

func TestMarkdown(t *testing.T) {
	report := compare.Report{
		Packages: []record.PackageRecord{
			{Name: "lodash", Version: "4.17.21", License: "MIT", Keywords: []string{"util"}},
			{Name: "flaky", Version: "0.1.0"},
		},
		Size: panel.State{
			Dimension: record.DimensionSize,
			Records: []record.PackageRecord{
				{Name: "lodash", Size: &record.Size{Minified: 1024, Gzip: 512, TotalWithDependencies: 2048}},
				{Name: "flaky"},
			},
			Failed: map[string]string{"flaky": "Failed to fetch size data for flaky"},
		},
		Downloads: panel.State{
			Dimension: record.DimensionDownloads,
			Records: []record.PackageRecord{
				{Name: "lodash", Downloads: &record.Downloads{Weekly: 1000, Monthly: 4000, Total: 123456}},
			},
		},
		Versions: panel.State{
			Dimension: record.DimensionVersion,
			Records: []record.PackageRecord{
				{Name: "lodash", Version: "4.17.21", Dependencies: map[string]string{}, PeerDependencies: map[string]string{}},
			},
		},
	}

	md := Markdown(report)
	for _, w := range []string{
		"# Package comparison",
		"| lodash | 4.17.21 | MIT | Unknown |",
		"| flaky | 0.1.0 | No license | Unknown |",
		"| lodash | 1.00 KB | 0.50 KB | 2.00 KB |",
		"| flaky | – | – | – |",
		"| lodash | 1,000 | 4,000 | 123,456 |",
		"_No dependencies_",
		"## Failures",
		"- Failed to fetch size data for flaky",
		"`util`",
	} {
		if !strings.Contains(md, w) {
			t.Errorf("missing %q in:\n%s", w, md)
		}
	}
}

func TestMarkdownEmpty(t *testing.T) {
	if md := Markdown(compare.Report{}); !strings.Contains(md, "No packages selected") {
		t.Errorf("Markdown(empty) = %q", md)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Title\n\nhello", 60, "notty")
	if err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "hello") {
		t.Errorf("RenderMarkdown() = %q", out)
	}
}
