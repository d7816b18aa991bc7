package dyntable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "veriform/pkg/domain"
	"veriform/pkg/platform/sentinel"
	"veriform/pkg/platform/tx"
)

const (
	pqUniqueViolation = "23505"
	pqDuplicateTable  = "42P07"
	pqDuplicateColumn = "42701"
)

// identifierPattern is the gateway's last line of defense: every unit and
// column name interpolated into DDL must already be normalized to this form.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// References names the collaborator-owned tables the baseline foreign keys
// point at. Empty table names skip the corresponding constraint so the
// gateway can run against a standalone database in tests.
type References struct {
	Candidates   string
	Branches     string
	Customers    string
	Applications string
}

// Postgres implements Gateway on PostgreSQL. All DDL goes through here and
// runs under a per-unit advisory lock so concurrent creation or widening of
// the same unit is serialized across processes.
type Postgres struct {
	db   *sql.DB
	refs References
}

// NewPostgres constructs the PostgreSQL gateway.
func NewPostgres(db *sql.DB, refs References) *Postgres {
	return &Postgres{db: db, refs: refs}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (g *Postgres) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return g.db
}

func validIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid identifier %q", sentinel.ErrInvalidState, name)
	}
	return nil
}

func (g *Postgres) UnitColumns(ctx context.Context, unit string) ([]string, error) {
	if err := validIdentifier(unit); err != nil {
		return nil, err
	}
	rows, err := g.q(ctx).QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`,
		unit,
	)
	if err != nil {
		return nil, fmt.Errorf("read unit columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unit columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return columns, nil
}

func (g *Postgres) CreateUnit(ctx context.Context, unit string, fields []string) error {
	if err := validIdentifier(unit); err != nil {
		return err
	}
	for _, field := range fields {
		if err := validIdentifier(field); err != nil {
			return err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", pq.QuoteIdentifier(unit))
	b.WriteString("\tid UUID PRIMARY KEY,\n")
	fmt.Fprintf(&b, "\tcandidate_id UUID NOT NULL UNIQUE%s,\n", g.reference(g.refs.Candidates))
	fmt.Fprintf(&b, "\tbranch_id UUID%s,\n", g.reference(g.refs.Branches))
	fmt.Fprintf(&b, "\tcustomer_id UUID%s,\n", g.reference(g.refs.Customers))
	fmt.Fprintf(&b, "\tapplication_id UUID%s,\n", g.reference(g.refs.Applications))
	b.WriteString("\tstatus TEXT NOT NULL DEFAULT 'pending',\n")
	b.WriteString("\tcreated_at TIMESTAMPTZ NOT NULL,\n")
	b.WriteString("\tupdated_at TIMESTAMPTZ NOT NULL")
	for _, field := range fields {
		fmt.Fprintf(&b, ",\n\t%s TEXT", pq.QuoteIdentifier(field))
	}
	b.WriteString("\n)")

	err := g.withUnitLock(ctx, unit, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, b.String())
		return err
	})
	if err != nil {
		// Another creator can still win between IF NOT EXISTS evaluation and
		// commit; the loser converges by re-reading columns.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqDuplicateTable {
			return nil
		}
		return fmt.Errorf("create unit %s: %w", unit, err)
	}
	return nil
}

func (g *Postgres) AddColumn(ctx context.Context, unit, column string) error {
	if err := validIdentifier(unit); err != nil {
		return err
	}
	if err := validIdentifier(column); err != nil {
		return err
	}
	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT",
		pq.QuoteIdentifier(unit), pq.QuoteIdentifier(column))

	err := g.withUnitLock(ctx, unit, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, ddl)
		return err
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqDuplicateColumn {
			return nil
		}
		return fmt.Errorf("add column %s.%s: %w", unit, column, err)
	}
	return nil
}

// withUnitLock runs fn in a transaction holding the per-unit advisory lock.
// The lock is released on commit or rollback.
func (g *Postgres) withUnitLock(ctx context.Context, unit string, fn func(tx *sql.Tx) error) error {
	dbTx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	if _, err := dbTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, unit); err != nil {
		return fmt.Errorf("acquire unit lock: %w", err)
	}
	if err := fn(dbTx); err != nil {
		return err
	}
	return dbTx.Commit()
}

func (g *Postgres) reference(table string) string {
	if table == "" {
		return ""
	}
	return " REFERENCES " + pq.QuoteIdentifier(table) + "(id)"
}

func (g *Postgres) FindByCandidate(ctx context.Context, unit string, candidateID id.CandidateID) (*Row, error) {
	if err := validIdentifier(unit); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE candidate_id = $1", pq.QuoteIdentifier(unit))
	rows, err := g.q(ctx).QueryContext(ctx, query, uuid.UUID(candidateID))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record in %s: %w", unit, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("find record in %s: %w", unit, err)
		}
		return nil, sentinel.ErrNotFound
	}
	row, err := scanRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scan record in %s: %w", unit, err)
	}
	return row, nil
}

func (g *Postgres) Insert(ctx context.Context, unit string, row *Row) error {
	if err := validIdentifier(unit); err != nil {
		return err
	}
	columns := []string{"id", "candidate_id", "branch_id", "customer_id", "application_id", "status", "created_at", "updated_at"}
	args := []any{
		row.ID,
		uuid.UUID(row.CandidateID),
		uuid.UUID(row.BranchID),
		uuid.UUID(row.CustomerID),
		uuid.UUID(row.ApplicationID),
		row.Status,
		row.CreatedAt,
		row.UpdatedAt,
	}
	for _, field := range sortedFieldNames(row.Fields) {
		if err := validIdentifier(field); err != nil {
			return err
		}
		columns = append(columns, field)
		args = append(args, row.Fields[field])
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(unit),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	if _, err := g.q(ctx).ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("insert into %s: %w", unit, sentinel.ErrConflict)
		}
		if isUndefinedTable(err) {
			return fmt.Errorf("insert into %s: %w", unit, sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert into %s: %w", unit, err)
	}
	return nil
}

func (g *Postgres) Update(ctx context.Context, unit string, candidateID id.CandidateID, fields map[string]string, updatedAt time.Time) (int64, error) {
	if err := validIdentifier(unit); err != nil {
		return 0, err
	}
	assignments := []string{"updated_at = $1"}
	args := []any{updatedAt}
	for _, field := range sortedFieldNames(fields) {
		if err := validIdentifier(field); err != nil {
			return 0, err
		}
		args = append(args, fields[field])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(field), len(args)))
	}
	args = append(args, uuid.UUID(candidateID))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE candidate_id = $%d",
		pq.QuoteIdentifier(unit),
		strings.Join(assignments, ", "),
		len(args))

	result, err := g.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, fmt.Errorf("update %s: %w", unit, sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("update %s: %w", unit, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s rows affected: %w", unit, err)
	}
	return affected, nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	// Deterministic statement text keeps prepared-statement churn down and
	// makes tests reproducible.
	sort.Strings(names)
	return names
}

// scanRow maps a SELECT * result onto a Row, routing baseline columns to
// typed fields and everything else into the dynamic field map.
func scanRow(rows *sql.Rows) (*Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	var (
		idVal, candidateVal, branchVal uuid.UUID
		customerVal, applicationVal    uuid.UUID
		status                         sql.NullString
		createdAt, updatedAt           sql.NullTime
	)
	dynamics := make([]sql.NullString, len(columns))
	for i, col := range columns {
		switch col {
		case "id":
			values[i] = &idVal
		case "candidate_id":
			values[i] = &candidateVal
		case "branch_id":
			values[i] = &branchVal
		case "customer_id":
			values[i] = &customerVal
		case "application_id":
			values[i] = &applicationVal
		case "status":
			values[i] = &status
		case "created_at":
			values[i] = &createdAt
		case "updated_at":
			values[i] = &updatedAt
		default:
			values[i] = &dynamics[i]
		}
	}
	if err := rows.Scan(values...); err != nil {
		return nil, err
	}

	row := &Row{
		ID:            idVal,
		CandidateID:   id.CandidateID(candidateVal),
		BranchID:      id.BranchID(branchVal),
		CustomerID:    id.CustomerID(customerVal),
		ApplicationID: id.ApplicationID(applicationVal),
		Status:        status.String,
		CreatedAt:     createdAt.Time,
		UpdatedAt:     updatedAt.Time,
		Fields:        make(map[string]string),
	}
	for i, col := range columns {
		if IsBaselineColumn(col) {
			continue
		}
		if dynamics[i].Valid {
			row.Fields[col] = dynamics[i].String
		}
	}
	return row, nil
}
