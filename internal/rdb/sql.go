package rdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const selectParams = `SELECT rec, field, num_value, str_value
FROM emec_parameters
WHERE table_name = $1 AND tag = $2 AND node = $3
ORDER BY rec, field`

// SQLSource reads tables from a Postgres emec_parameters table with one row
// per (record, field).
type SQLSource struct {
	db *sql.DB
}

// OpenSQL connects with a lib/pq DSN and checks the connection.
func OpenSQL(ctx context.Context, dsn string) (*SQLSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return &SQLSource{db: db}, nil
}

func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

type paramRow struct {
	rec   int
	field string
	num   sql.NullFloat64
	str   sql.NullString
}

func (s *SQLSource) Lookup(ctx context.Context, table, tag, node string) (RecordSet, error) {
	rows, err := s.db.QueryContext(ctx, selectParams, table, tag, node)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, pqErr.Message)
		}
		return nil, err
	}
	defer rows.Close()

	var scanned []paramRow
	for rows.Next() {
		var r paramRow
		if err := rows.Scan(&r.rec, &r.field, &r.num, &r.str); err != nil {
			return nil, err
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assemble(scanned), nil
}

// assemble folds (rec, field) rows into records. Record indices need not be
// dense; they are kept in ascending order.
func assemble(rows []paramRow) MemoryRecordSet {
	if len(rows) == 0 {
		return nil
	}
	maxRec := 0
	for _, r := range rows {
		if r.rec > maxRec {
			maxRec = r.rec
		}
	}
	byRec := make([]*MemoryRecord, maxRec+1)
	for _, r := range rows {
		if r.rec < 0 {
			continue
		}
		m := byRec[r.rec]
		if m == nil {
			m = &MemoryRecord{Num: map[string]float64{}, Str: map[string]string{}}
			byRec[r.rec] = m
		}
		switch {
		case r.num.Valid:
			m.Num[r.field] = r.num.Float64
		case r.str.Valid:
			m.Str[r.field] = r.str.String
		}
	}
	out := make(MemoryRecordSet, 0, len(byRec))
	for _, m := range byRec {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}
