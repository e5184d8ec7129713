package sandbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/sqlutil"
)

// successCodes are the status values that mean the event succeeded.
var successCodes = []string{"0"}

// CodeCount is how often one status value occurs.
type CodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Profile is a quick overview of a loaded dataset.
type Profile struct {
	Table       string      `json:"table"`
	Rows        int         `json:"rows"`
	Columns     []string    `json:"columns"`
	Status      string      `json:"status_column,omitempty"`
	Failures    int         `json:"failures"`
	ResultCodes []CodeCount `json:"result_codes,omitempty"`
	Timestamp   string      `json:"timestamp_column,omitempty"`
	FirstEvent  string      `json:"first_event,omitempty"`
	LastEvent   string      `json:"last_event,omitempty"`
}

// Profile counts rows, failures and result codes. statusColumn and
// timeColumn are optional; columns the table lacks are skipped.
func (s *Sandbox) Profile(ctx context.Context, statusColumn, timeColumn string) (*Profile, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	p := &Profile{Table: s.table, Columns: s.columns}
	table := sqlutil.QuoteIdent(s.table)

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&p.Rows); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	if col, ok := dataset.ResolveColumn(s.columns, statusColumn); ok && statusColumn != "" {
		p.Status = col
		if err := s.profileStatus(ctx, p, table, sqlutil.QuoteIdent(col)); err != nil {
			return nil, err
		}
	}

	if col, ok := dataset.ResolveColumn(s.columns, timeColumn); ok && timeColumn != "" {
		p.Timestamp = col
		quoted := sqlutil.QuoteIdent(col)
		var first, last sql.NullString
		q := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", quoted, quoted, table)
		if err := s.db.QueryRowContext(ctx, q).Scan(&first, &last); err != nil {
			return nil, fmt.Errorf("time range: %w", err)
		}
		p.FirstEvent = first.String
		p.LastEvent = last.String
	}

	return p, nil
}

func (s *Sandbox) profileStatus(ctx context.Context, p *Profile, table, col string) error {
	inClause, args := sqlutil.InClauseArgs(successCodes)
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s != '' AND %s NOT IN (%s)", table, col, col, col, inClause)
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&p.Failures); err != nil {
		return fmt.Errorf("count failures: %w", err)
	}

	q = fmt.Sprintf("SELECT %s, COUNT(*) FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY COUNT(*) DESC, %s", col, table, col, col, col)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("result codes: %w", err)
	}
	codes, err := sqlutil.ScanRows(rows, func(r *sql.Rows) (CodeCount, error) {
		var raw any
		var c CodeCount
		if err := r.Scan(&raw, &c.Count); err != nil {
			return c, err
		}
		c.Code = dataset.FromAny(raw).Text()
		return c, nil
	})
	if err != nil {
		return fmt.Errorf("result codes: %w", err)
	}
	p.ResultCodes = codes
	return nil
}
