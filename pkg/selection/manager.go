// Package selection holds the ordered set of packages chosen for comparison.
//
// The [Manager] is the single source of truth for which packages are being
// compared. Every change produces a [Snapshot] that is pushed synchronously
// to subscribers (the comparison panels), each of which then enriches its
// own copies of the records.
package selection

import (
	"sync"

	"github.com/matzehuels/pkgcompare/pkg/record"
)

// Snapshot is the selection at one revision. Records are deep copies in
// insertion order; consumers may modify them freely.
type Snapshot struct {
	Revision uint64
	Records  []record.PackageRecord
}

// Names returns the package names in the snapshot.
func (s Snapshot) Names() []string {
	return record.Names(s.Records)
}

// Manager is an ordered, name-keyed set of base records. It is safe for
// concurrent use.
type Manager struct {
	mu       sync.Mutex
	records  []record.PackageRecord
	revision uint64
	subs     map[int]func(Snapshot)
	nextID   int
}

// NewManager creates an empty selection.
func NewManager() *Manager {
	return &Manager{subs: make(map[int]func(Snapshot))}
}

// Add appends rec and notifies subscribers. If a package with the same
// name is already selected, its base fields are replaced in place and its
// position is kept.
func (m *Manager) Add(rec record.PackageRecord) {
	rec = rec.Clone()
	// The selection only holds base fields; dimension data belongs to panels.
	rec.Size, rec.Downloads = nil, nil
	rec.Dependencies, rec.PeerDependencies = nil, nil

	m.mu.Lock()
	if i := record.Index(m.records, rec.Name); i >= 0 {
		m.records[i] = rec
	} else {
		m.records = append(m.records, rec)
	}
	m.publishLocked()
}

// Remove drops the package named name and notifies subscribers. Removing
// an unknown name still notifies, with an unchanged record list.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	if i := record.Index(m.records, name); i >= 0 {
		m.records = append(m.records[:i:i], m.records[i+1:]...)
	}
	m.publishLocked()
}

// publishLocked bumps the revision, releases the lock and delivers the
// snapshot. Subscribers run outside the lock so they may read the manager.
func (m *Manager) publishLocked() {
	m.revision++
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range subs {
		// Each subscriber gets its own copies.
		fn(Snapshot{Revision: snap.Revision, Records: record.CloneAll(snap.Records)})
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{Revision: m.revision, Records: record.CloneAll(m.records)}
}

// Snapshot returns the current selection.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Records returns deep copies of the selected records in insertion order.
func (m *Manager) Records() []record.PackageRecord {
	return m.Snapshot().Records
}

// Names returns the selected package names in insertion order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return record.Names(m.records)
}

// Len returns the number of selected packages.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Contains reports whether name is selected.
func (m *Manager) Contains(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return record.Index(m.records, name) >= 0
}

// Revision returns the number of changes made so far.
func (m *Manager) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision
}

// Subscribe registers fn to receive a snapshot after every change, in
// registration order, on the goroutine that made the change. The returned
// function removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}
