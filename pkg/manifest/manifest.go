// Package manifest implements the schema descriptor that precedes a
// source's samples: an ordered list of named, typed rows plus the
// resolution at which subsequent samples report their delta-timestamps.
package manifest

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// RowType is the stable, wire-compatible type tag for a manifest row.
// Values match the default encoder's type_tag byte (see pkg/encoder).
type RowType uint8

const (
	TypeI32  RowType = 1
	TypeU32  RowType = 2
	TypeI64  RowType = 3
	TypeU64  RowType = 4
	TypeUtf8 RowType = 5
	TypeI8   RowType = 6
	TypeBool RowType = 7
)

func (t RowType) String() string {
	switch t {
	case TypeI32:
		return "i32"
	case TypeU32:
		return "u32"
	case TypeI64:
		return "i64"
	case TypeU64:
		return "u64"
	case TypeUtf8:
		return "utf8"
	case TypeI8:
		return "i8"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

func (t RowType) valid() bool {
	switch t {
	case TypeI32, TypeU32, TypeI64, TypeU64, TypeUtf8, TypeI8, TypeBool:
		return true
	default:
		return false
	}
}

// Resolution is the granularity at which a source's samples report their
// delta-timestamps relative to the manifest's Timestamp. The core never
// converts timestamps on the producing side; it only reports this value so
// a receiver can interpret the payload's embedded deltas.
type Resolution uint8

const (
	Precise Resolution = 0
	Micros  Resolution = 1
	Millis  Resolution = 2
	Seconds Resolution = 3
	Minutes Resolution = 4
	Hours   Resolution = 5
)

// ErrUnsupportedType is returned by Append for a RowType outside the stable set.
var ErrUnsupportedType = errors.New("manifest: unsupported row type")

// Row describes a single named, typed column of a manifest.
type Row struct {
	ID   int // 1-based, dense, assigned in append order
	Type RowType
	Name string
}

// Manifest is a schema descriptor whose row list is frozen by Publish. A
// Builder constructs one; once Publish is called, Append is rejected and the
// Manifest can be shared by reference across every subscription that
// snapshots it. The Set* methods still take effect after Publish (the
// channel stamps the source id at that point).
type Manifest struct {
	mu sync.Mutex // guards the fields below until Publish freezes them

	sourceID   int
	rows       []Row
	timestamp  time.Time
	resolution Resolution
	published  bool
}

// NewBuilder returns an empty manifest ready to accumulate rows.
func NewBuilder() *Manifest {
	return NewBuilderSized(4)
}

// NewBuilderSized pre-allocates space for size rows.
func NewBuilderSized(size int) *Manifest {
	return &Manifest{rows: make([]Row, 0, size)}
}

// Append adds a row and returns its 1-based row id. Row ids are dense and
// assigned in append order, matching the wire format's compact-id
// optimization for manifests with at most 255 rows.
func (m *Manifest) Append(name string, typ RowType) (int, error) {
	if !typ.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedType, typ)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.published {
		return 0, errors.New("manifest: cannot append after publish")
	}

	id := len(m.rows) + 1
	m.rows = append(m.rows, Row{ID: id, Type: typ, Name: name})
	return id, nil
}

// RowCount returns the number of rows currently in the manifest.
func (m *Manifest) RowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// RowName returns the name of the given 1-based row, or "" if out of range.
func (m *Manifest) RowName(row int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row < 1 || row > len(m.rows) {
		return ""
	}
	return m.rows[row-1].Name
}

// RowType returns the type of the given 1-based row. ok is false if the row
// is out of range.
func (m *Manifest) RowType(row int) (typ RowType, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row < 1 || row > len(m.rows) {
		return 0, false
	}
	return m.rows[row-1].Type, true
}

// Rows returns a copy of the manifest's rows in append order.
func (m *Manifest) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, len(m.rows))
	copy(out, m.rows)
	return out
}

// SetSourceID sets the owning channel's source id. The channel is the only
// caller; it stamps the id when the source hands it the already-published
// manifest.
func (m *Manifest) SetSourceID(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sourceID = id
}

// SourceID returns the manifest's source id.
func (m *Manifest) SourceID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sourceID
}

// SetTimestamp sets the wall-clock time at which this manifest becomes
// authoritative. Must be called exactly once before Publish.
func (m *Manifest) SetTimestamp(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timestamp = t
}

// Timestamp returns the manifest's authoritative timestamp.
func (m *Manifest) Timestamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timestamp
}

// SetResolution sets the delta-timestamp resolution samples under this
// manifest will report. Must be called exactly once before Publish.
func (m *Manifest) SetResolution(r Resolution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolution = r
}

// Resolution returns the manifest's delta-timestamp resolution.
func (m *Manifest) Resolution() Resolution {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolution
}

// Publish freezes the manifest against further Append calls. It is called
// once by the owning source before the manifest is handed to a channel;
// every subscription that snapshots it afterward shares the same
// read-only instance, so readers need no lock.
func (m *Manifest) Publish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = true
}

// CompactIDs reports whether the manifest qualifies for the wire format's
// single-byte row-id optimization (row_count <= 255).
func (m *Manifest) CompactIDs() bool {
	return m.RowCount() <= 255
}
