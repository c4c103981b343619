package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/songzhibin97/academia/pkg/entity"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// mapping describes how one entity type is laid out in its table.
type mapping[T any] struct {
	entity    string
	table     string
	keyColumn string
	generated bool     // key comes from a BIGSERIAL column
	columns   []string // non-key columns, in values() order
	key       func(*T) int64
	values    func(*T) []interface{}
	scan      func(scanner) (*T, error)
}

// table implements entity.Adapter for one mapping. Each call is a single statement.
type table[T any] struct {
	repo *Repository
	m    mapping[T]

	insertSQL    string
	upsertSQL    string
	selectSQL    string
	selectAllSQL string
}

func newTable[T any](repo *Repository, m mapping[T]) *table[T] {
	returning := m.keyColumn + ", " + strings.Join(m.columns, ", ")

	t := &table[T]{repo: repo, m: m}
	t.selectSQL = fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", returning, m.table, m.keyColumn)
	t.selectAllSQL = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", returning, m.table, m.keyColumn)

	if m.generated {
		t.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			m.table, strings.Join(m.columns, ", "), placeholders(1, len(m.columns)), returning)
	}

	sets := make([]string, len(m.columns))
	for i, c := range m.columns {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}
	t.upsertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING %s",
		m.table, returning, placeholders(1, len(m.columns)+1), m.keyColumn, strings.Join(sets, ", "), returning)

	return t
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}

// InsertOrUpsert implements entity.Adapter.
func (t *table[T]) InsertOrUpsert(ctx context.Context, value *T) (*T, error) {
	if value == nil {
		return nil, entity.NewInvalidInputError("INVALID_"+strings.ToUpper(t.m.table), t.m.entity+" cannot be null")
	}

	key := t.m.key(value)
	var row *sql.Row
	switch {
	case key == 0 && t.m.generated:
		row = t.repo.execQueryRow(ctx, t.insertSQL, t.m.values(value)...)
	case key == 0:
		return nil, entity.NewInvalidInputError("INVALID_"+strings.ToUpper(t.m.table)+"_KEY", t.m.entity+" key is required")
	case key < 0:
		return nil, entity.NewInvalidInputError("INVALID_"+strings.ToUpper(t.m.table)+"_KEY",
			fmt.Sprintf("%s key must not be negative: %d", t.m.entity, key))
	default:
		args := append([]interface{}{key}, t.m.values(value)...)
		row = t.repo.execQueryRow(ctx, t.upsertSQL, args...)
	}

	saved, err := t.m.scan(row)
	if err != nil {
		return nil, classify(t.m.entity, "SAVE", err)
	}
	return saved, nil
}

// SelectByKey implements entity.Adapter.
func (t *table[T]) SelectByKey(ctx context.Context, key int64) (*T, bool, error) {
	v, err := t.m.scan(t.repo.execQueryRow(ctx, t.selectSQL, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(t.m.entity, "GET", err)
	}
	return v, true, nil
}

// SelectAll implements entity.Adapter.
func (t *table[T]) SelectAll(ctx context.Context) ([]*T, error) {
	rows, err := t.repo.execQuery(ctx, t.selectAllSQL)
	if err != nil {
		return nil, classify(t.m.entity, "LIST", err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		v, err := t.m.scan(rows)
		if err != nil {
			return nil, classify(t.m.entity, "LIST", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(t.m.entity, "LIST", err)
	}
	return out, nil
}

// nullID stores the zero key as NULL for optional references.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
