package compare

import (
	"maps"
	"time"

	"github.com/matzehuels/pkgcompare/pkg/panel"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// Report is a point-in-time view of a workspace.
type Report struct {
	GeneratedAt time.Time              `json:"generatedAt" yaml:"generatedAt"`
	Packages    []record.PackageRecord `json:"packages" yaml:"packages"`
	Size        panel.State            `json:"size" yaml:"size"`
	Versions    panel.State            `json:"versions" yaml:"versions"`
	Downloads   panel.State            `json:"downloads" yaml:"downloads"`
}

// Merged returns the selected packages, in selection order, with each
// panel's dimension data copied onto the matching record. A dimension a
// panel has not produced for a package stays empty.
func (r Report) Merged() []record.PackageRecord {
	out := record.CloneAll(r.Packages)
	for i := range out {
		name := out[i].Name
		if j := record.Index(r.Size.Records, name); j >= 0 && r.Size.Records[j].Size != nil {
			s := *r.Size.Records[j].Size
			out[i].Size = &s
		}
		if j := record.Index(r.Downloads.Records, name); j >= 0 && r.Downloads.Records[j].Downloads != nil {
			d := *r.Downloads.Records[j].Downloads
			out[i].Downloads = &d
		}
		if j := record.Index(r.Versions.Records, name); j >= 0 {
			v := r.Versions.Records[j]
			if v.HasDependencyData() {
				out[i].Version = v.Version
				out[i].Dependencies = maps.Clone(v.Dependencies)
				out[i].PeerDependencies = maps.Clone(v.PeerDependencies)
			}
		}
	}
	return out
}

// Failures returns every failure message across the panels, keyed by
// dimension and then package.
func (r Report) Failures() map[record.Dimension]map[string]string {
	out := map[record.Dimension]map[string]string{}
	for _, s := range []panel.State{r.Size, r.Versions, r.Downloads} {
		if len(s.Failed) > 0 {
			out[s.Dimension] = maps.Clone(s.Failed)
		}
	}
	return out
}
