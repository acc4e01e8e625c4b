package rdb

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Reader reads fields from one resolved table. Errors are sticky: after the
// first failure every further call is a no-op and Err reports the failure.
//
//	r := rdb.NewReader(ctx, src).
//		Data("EmecWheelParameters", tag, node).
//		FallbackTo("EmecWheelParameters", "EmecWheelParameters-00")
//	r.Param(&zShift, "ZSHIFT", units.CM)
//	if err := r.Err(); err != nil { ... }
type Reader struct {
	ctx      context.Context
	src      Source
	set      RecordSet
	table    string
	resolved string
	err      error
}

func NewReader(ctx context.Context, src Source) *Reader {
	r := &Reader{ctx: ctx, src: src}
	if src == nil {
		r.err = fmt.Errorf("%w: nil source", ErrSourceUnavailable)
	}
	return r
}

// Data resolves (table, tag, node) as the primary lookup.
func (r *Reader) Data(table, tag, node string) *Reader {
	if r.err != nil {
		return r
	}
	set, err := r.src.Lookup(r.ctx, table, tag, node)
	if err != nil {
		r.err = fmt.Errorf("lookup %s/%s/%s: %w", table, tag, node, err)
		return r
	}
	r.set, r.table, r.resolved = set, table, tag
	return r
}

// FallbackTo reads the literal tag when the primary lookup came back empty.
func (r *Reader) FallbackTo(table, tag string) *Reader {
	if r.err != nil || (r.set != nil && r.set.Len() > 0) {
		return r
	}
	set, err := r.src.Lookup(r.ctx, table, tag, "")
	if err != nil {
		r.err = fmt.Errorf("lookup %s/%s: %w", table, tag, err)
		return r
	}
	if set == nil || set.Len() == 0 {
		r.err = fmt.Errorf("%w: table %s (fallback tag %s)", ErrNoRecords, table, tag)
		return r
	}
	r.set, r.table, r.resolved = set, table, tag
	return r
}

// Len is the number of records of the resolved table.
func (r *Reader) Len() int {
	if r.err != nil || r.set == nil {
		return 0
	}
	return r.set.Len()
}

// Resolved returns the tag that served the data.
func (r *Reader) Resolved() string {
	return r.resolved
}

// Param reads a numeric field of the first record, scaled by unit.
func (r *Reader) Param(dst *float64, field string, unit float64) *Reader {
	return r.ParamAt(dst, field, unit, 0)
}

// ParamAt reads a numeric field of record index, scaled by unit.
func (r *Reader) ParamAt(dst *float64, field string, unit float64, index int) *Reader {
	rec, ok := r.record(index)
	if !ok {
		return r
	}
	v, err := rec.Double(field)
	if err != nil {
		r.err = fmt.Errorf("%s[%d]: %w", r.table, index, err)
		return r
	}
	*dst = v * unit
	return r
}

// Int reads a numeric field of the first record, rounded to an integer.
func (r *Reader) Int(dst *int, field string) *Reader {
	var v float64
	r.ParamAt(&v, field, 1, 0)
	if r.err == nil {
		*dst = int(math.Round(v))
	}
	return r
}

// String reads a text field of the first record. A missing field yields "".
func (r *Reader) String(dst *string, field string) *Reader {
	rec, ok := r.record(0)
	if !ok {
		return r
	}
	s, err := rec.String(field)
	switch {
	case errors.Is(err, ErrNoField):
		*dst = ""
	case err != nil:
		r.err = fmt.Errorf("%s: %w", r.table, err)
	default:
		*dst = s
	}
	return r
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) record(index int) (Record, bool) {
	if r.err != nil {
		return nil, false
	}
	if r.set == nil || r.set.Len() == 0 {
		r.err = fmt.Errorf("%w: table %s", ErrNoRecords, r.table)
		return nil, false
	}
	if index < 0 || index >= r.set.Len() {
		r.err = fmt.Errorf("%s: record %d out of range [0,%d)", r.table, index, r.set.Len())
		return nil, false
	}
	return r.set.Record(index), true
}
