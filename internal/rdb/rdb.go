// Package rdb reads named, versioned geometry parameters. A parameter table is
// addressed by (table, tag, node); the answer is a set of records whose fields
// are read by name. Several backends are provided: an in-memory source with
// the built-in EMEC values, an INI file, a Postgres database and a badger
// replica that caches any of them.
package rdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNoRecords is returned when neither the primary key nor the
	// fallback tag resolve to a non-empty record set.
	ErrNoRecords = errors.New("no records")
	// ErrNoField is returned when a record does not hold the requested field.
	ErrNoField = errors.New("no such field")
	// ErrSourceUnavailable is returned when a backend cannot be opened.
	ErrSourceUnavailable = errors.New("parameter source unavailable")
)

// Record is a single row of a parameter table.
type Record interface {
	Double(field string) (float64, error)
	String(field string) (string, error)
	Fields() []string
}

// RecordSet is the answer to a table lookup. An empty set is not an error.
type RecordSet interface {
	Len() int
	Record(i int) Record
}

// Source resolves a table for a tag. The literal fallback lookup passes an
// empty node.
type Source interface {
	Lookup(ctx context.Context, table, tag, node string) (RecordSet, error)
}

// Fields is a convenience literal for building memory records.
type Fields map[string]interface{}

// MemoryRecord is a concrete Record. It is also the gob payload stored by
// the badger replica, hence the exported maps.
type MemoryRecord struct {
	Num map[string]float64
	Str map[string]string
}

// Rec builds a MemoryRecord from float, int and string values.
func Rec(f Fields) MemoryRecord {
	r := MemoryRecord{Num: map[string]float64{}, Str: map[string]string{}}
	for k, v := range f {
		switch val := v.(type) {
		case float64:
			r.Num[k] = val
		case int:
			r.Num[k] = float64(val)
		case string:
			r.Str[k] = val
		default:
			r.Str[k] = fmt.Sprint(val)
		}
	}
	return r
}

func (r MemoryRecord) Double(field string) (float64, error) {
	if v, ok := r.Num[field]; ok {
		return v, nil
	}
	if s, ok := r.Str[field]; ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", field, err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNoField, field)
}

func (r MemoryRecord) String(field string) (string, error) {
	if s, ok := r.Str[field]; ok {
		return s, nil
	}
	if v, ok := r.Num[field]; ok {
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoField, field)
}

func (r MemoryRecord) Fields() []string {
	names := make([]string, 0, len(r.Num)+len(r.Str))
	for k := range r.Num {
		names = append(names, k)
	}
	for k := range r.Str {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MemoryRecordSet is a slice-backed RecordSet.
type MemoryRecordSet []MemoryRecord

func (s MemoryRecordSet) Len() int            { return len(s) }
func (s MemoryRecordSet) Record(i int) Record { return s[i] }

// Snapshot copies any record set into memory. Numeric fields stay numeric,
// everything else is kept as text.
func Snapshot(rs RecordSet) MemoryRecordSet {
	if rs == nil {
		return nil
	}
	out := make(MemoryRecordSet, 0, rs.Len())
	for i := 0; i < rs.Len(); i++ {
		rec := rs.Record(i)
		m := MemoryRecord{Num: map[string]float64{}, Str: map[string]string{}}
		for _, f := range rec.Fields() {
			if s, err := rec.String(f); err == nil {
				if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					m.Num[f] = v
					continue
				}
				m.Str[f] = s
				continue
			}
			if v, err := rec.Double(f); err == nil {
				m.Num[f] = v
			}
		}
		out = append(out, m)
	}
	return out
}

// MemorySource keeps record sets in a map. It is safe for concurrent use.
type MemorySource struct {
	mu   sync.RWMutex
	sets map[string]MemoryRecordSet
}

func NewMemorySource() *MemorySource {
	return &MemorySource{sets: make(map[string]MemoryRecordSet)}
}

// Put stores the records for (table, tag, node). Use an empty node for a
// literal fallback tag.
func (m *MemorySource) Put(table, tag, node string, recs ...MemoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[key(table, tag, node)] = MemoryRecordSet(recs)
}

func (m *MemorySource) Lookup(_ context.Context, table, tag, node string) (RecordSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets[key(table, tag, node)], nil
}

func key(table, tag, node string) string {
	return table + "|" + tag + "|" + node
}
