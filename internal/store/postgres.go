// Package store implements the import backend on PostgreSQL.
//
// Roles come from the profiles table, reference lists from profiles,
// creators and executions, and inserts go into the table named by each
// entity schema. Column names are taken from mapped record keys, which are
// always schema field names, and are quoted before use.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

// referenceQueries read each reference list as (id, name, email).
var referenceQueries = map[core.RefKind]string{
	core.RefUsers: `SELECT id::text, COALESCE(full_name, ''), COALESCE(email, '')
FROM profiles ORDER BY created_at, id`,
	core.RefCreators: `SELECT id::text, COALESCE(name, ''), COALESCE(email, '')
FROM creators ORDER BY created_at, id`,
	core.RefCampaigns: `SELECT id::text, COALESCE(brand_name, ''), ''
FROM executions ORDER BY created_at, id`,
}

// Postgres is the pgx-backed core.Backend.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// CallerRole returns the role on the caller's profile. A caller without a
// profile has no role and is denied by the permission check.
func (p *Postgres) CallerRole(ctx context.Context, userID string) (string, error) {
	var role *string
	err := p.pool.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch caller role: %w", err)
	}
	if role == nil {
		return "", nil
	}
	return *role, nil
}

// ReferenceList returns every row of a reference list.
func (p *Postgres) ReferenceList(ctx context.Context, kind core.RefKind) ([]core.Reference, error) {
	query, ok := referenceQueries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference list %q", kind)
	}

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}
	refs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.Reference])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}
	return refs, nil
}

// InsertRecords writes records in one transaction.
//
// Atomic: the first failing row aborts the batch. It is reported failed,
// rows before it rolled_back and rows after it skipped, and the raw database
// error is returned.
//
// Non-atomic: every row runs under its own savepoint, failing rows are rolled
// back individually and the rest are committed.
func (p *Postgres) InsertRecords(ctx context.Context, table string, records []core.Record, atomic bool) ([]core.RowOutcome, error) {
	outcomes := make([]core.RowOutcome, len(records))
	for i := range outcomes {
		outcomes[i] = core.RowOutcome{RowIndex: i, Status: core.OutcomeSkipped}
	}
	if len(records) == 0 {
		return outcomes, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return outcomes, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, rec := range records {
		query, args := BuildInsert(table, rec)

		if atomic {
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				abortBatch(outcomes, i, err)
				return outcomes, err
			}
			outcomes[i].Status = core.OutcomeInserted
			continue
		}

		savepoint := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
			return rollbackAll(outcomes), fmt.Errorf("create savepoint: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			_, _ = tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint)
			outcomes[i].Status = core.OutcomeFailed
			outcomes[i].Error = err.Error()
			continue
		}
		_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint)
		outcomes[i].Status = core.OutcomeInserted
	}

	if err := tx.Commit(ctx); err != nil {
		return rollbackAll(outcomes), fmt.Errorf("commit: %w", err)
	}
	return outcomes, nil
}

// abortBatch marks an atomic batch that failed at row failed.
func abortBatch(outcomes []core.RowOutcome, failed int, err error) {
	for i := range outcomes {
		switch {
		case i < failed:
			outcomes[i].Status = core.OutcomeRolledBack
		case i == failed:
			outcomes[i].Status = core.OutcomeFailed
			outcomes[i].Error = err.Error()
		default:
			outcomes[i].Status = core.OutcomeSkipped
		}
	}
}

// rollbackAll downgrades inserted rows after the transaction was lost.
func rollbackAll(outcomes []core.RowOutcome) []core.RowOutcome {
	for i := range outcomes {
		if outcomes[i].Status == core.OutcomeInserted {
			outcomes[i].Status = core.OutcomeRolledBack
		}
	}
	return outcomes
}

// BuildInsert renders a parameterized INSERT for one record. Columns are
// sorted so the statement text is stable for a given key set.
func BuildInsert(table string, rec core.Record) (string, []any) {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}

	target := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	if len(cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", target), nil
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		target,
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	), args
}
