package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/pkgcompare/pkg/record"
)

func TestToDOT(t *testing.T) {
	records := []record.PackageRecord{
		{
			Name:             "axios",
			Version:          "1.7.2",
			Dependencies:     map[string]string{"follow-redirects": "^1.15.6", "form-data": "^4.0.0"},
			PeerDependencies: map[string]string{"debug": "*"},
		},
		{
			Name:         "got",
			Version:      "14.4.1",
			Dependencies: map[string]string{"form-data": "^4.0.0"},
		},
		{Name: "lodash", Version: "4.17.21"},
	}

	tests := []struct {
		name    string
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name: "plain",
			want: []string{
				`"axios" [label="axios@1.7.2"`,
				`"lodash" [label="lodash@4.17.21"`,
				`"axios" -> "follow-redirects";`,
				`"got" -> "form-data";`,
			},
			notWant: []string{`"debug"`, `label="^4.0.0"`},
		},
		{
			name: "ranges and peers",
			opts: Options{Ranges: true, Peers: true},
			want: []string{
				`"axios" -> "form-data" [label="^4.0.0"];`,
				`"axios" -> "debug" [style=dashed, label="*"];`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(records, tt.opts)
			if !strings.HasPrefix(dot, "digraph G {") {
				t.Errorf("missing header:\n%s", dot)
			}
			for _, w := range tt.want {
				if !strings.Contains(dot, w) {
					t.Errorf("missing %q in:\n%s", w, dot)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(dot, w) {
					t.Errorf("unexpected %q in:\n%s", w, dot)
				}
			}
		})
	}
}

func TestToDOTSharedDependencyOnce(t *testing.T) {
	records := []record.PackageRecord{
		{Name: "a", Dependencies: map[string]string{"shared": "1"}},
		{Name: "b", Dependencies: map[string]string{"shared": "2"}},
	}
	dot := ToDOT(records, Options{})
	if n := strings.Count(dot, "  \"shared\";"); n != 1 {
		t.Errorf("shared node declared %d times, want 1:\n%s", n, dot)
	}
}

func TestToDOTSelectedDependency(t *testing.T) {
	// A compared package that another depends on is not redeclared plain.
	records := []record.PackageRecord{
		{Name: "a", Dependencies: map[string]string{"b": "^1"}},
		{Name: "b", Version: "1.0.0"},
	}
	dot := ToDOT(records, Options{})
	if strings.Contains(dot, "  \"b\";") {
		t.Errorf("selected package redeclared:\n%s", dot)
	}
	if !strings.Contains(dot, `"a" -> "b";`) {
		t.Errorf("missing edge:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
