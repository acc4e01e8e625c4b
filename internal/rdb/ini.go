package rdb

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// IniSource serves parameter tables from an INI document. Each table lives in
// a section named "Table@tag@node" or, for literal tags, "Table@tag":
//
//	[EmecWheelParameters@EmecWheelParameters-00]
//	NABS   = 256, 768
//	ETAEXT = 2.5, 1.375
//
// A comma separated numeric value holds one element per record. Text values
// and single numbers are shared by every record of the section.
type IniSource struct {
	file *ini.File
}

// LoadIni parses a file path or a raw []byte document.
func LoadIni(source interface{}) (*IniSource, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return &IniSource{file: f}, nil
}

func sectionName(table, tag, node string) string {
	if node == "" {
		return table + "@" + tag
	}
	return table + "@" + tag + "@" + node
}

func (s *IniSource) Lookup(_ context.Context, table, tag, node string) (RecordSet, error) {
	sec, err := s.file.GetSection(sectionName(table, tag, node))
	if err != nil {
		return MemoryRecordSet(nil), nil
	}
	return newIniRecordSet(sec), nil
}

type iniRecordSet struct {
	sec *ini.Section
	n   int
}

func newIniRecordSet(sec *ini.Section) *iniRecordSet {
	n := 0
	for _, k := range sec.Keys() {
		size := 1
		if vals, err := k.StrictFloat64s(","); err == nil {
			size = len(vals)
		}
		if size > n {
			n = size
		}
	}
	return &iniRecordSet{sec: sec, n: n}
}

func (s *iniRecordSet) Len() int { return s.n }

func (s *iniRecordSet) Record(i int) Record {
	return iniRecord{sec: s.sec, index: i}
}

type iniRecord struct {
	sec   *ini.Section
	index int
}

func (r iniRecord) Double(field string) (float64, error) {
	if !r.sec.HasKey(field) {
		return 0, fmt.Errorf("%w: %s", ErrNoField, field)
	}
	vals, err := r.sec.Key(field).StrictFloat64s(",")
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	switch {
	case len(vals) == 1:
		return vals[0], nil
	case r.index < len(vals):
		return vals[r.index], nil
	}
	return 0, fmt.Errorf("%w: %s[%d]", ErrNoField, field, r.index)
}

func (r iniRecord) String(field string) (string, error) {
	if !r.sec.HasKey(field) {
		return "", fmt.Errorf("%w: %s", ErrNoField, field)
	}
	k := r.sec.Key(field)
	if vals, err := k.StrictFloat64s(","); err == nil && len(vals) > 1 {
		parts := strings.Split(k.String(), ",")
		if r.index < len(parts) {
			return strings.TrimSpace(parts[r.index]), nil
		}
	}
	return k.String(), nil
}

func (r iniRecord) Fields() []string {
	return r.sec.KeyStrings()
}
