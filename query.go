package dynq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/dynq/mapper"
	"github.com/Konsultn-Engineering/dynq/template"
)

// Select expands the query, executes it against the routed database, and
// hands the row cursor to the mapper. The mapper's result is returned as-is.
func (r *Runner) Select(ctx context.Context, q template.Query, m mapper.Mapper) (any, error) {
	stmt, err := template.Expand(q)
	if err != nil {
		return nil, err
	}

	conn, err := r.registry.Checkout(ctx)
	if err != nil {
		return nil, err
	}

	sqlText, args, err := template.BindNamed(stmt, conn.Dialect())
	if err != nil {
		return nil, err
	}

	op := r.opID()
	r.logger.DebugContext(ctx, "select",
		"op", op, "database", r.routeName(ctx), "dialect", conn.Dialect().Name(), "sql", sqlText)

	rows, err := conn.Database().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, classifyExec(r.routeName(ctx), stmt, err)
	}
	defer rows.Close()

	result, err := m.MapRows(rows)
	if err != nil {
		var me *MappingError
		if errors.As(err, &me) {
			return nil, err
		}
		return nil, classifyExec(r.routeName(ctx), stmt, err)
	}
	return result, nil
}

// SelectAs runs Select and asserts the mapper result to T.
func SelectAs[T any](ctx context.Context, r *Runner, q template.Query, m mapper.Mapper) (T, error) {
	var zero T
	result, err := r.Select(ctx, q, m)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("dynq: mapper produced %T, want %T", result, zero)
	}
	return typed, nil
}

// Exists wraps the query in an existence predicate and reports whether it
// matches at least one row. Queries already shaped as SELECT EXISTS pass
// through unwrapped.
func (r *Runner) Exists(ctx context.Context, q template.Query) (bool, error) {
	sqlText := strings.TrimSpace(q.SQL)
	if !strings.HasPrefix(strings.ToUpper(sqlText), "SELECT EXISTS") {
		sqlText = "SELECT EXISTS ( " + sqlText + " )"
	}
	wrapped := template.Query{SQL: sqlText, Params: q.Params, Templates: q.Templates}

	result, err := r.Select(ctx, wrapped, mapper.NewScalar())
	if err != nil {
		return false, err
	}
	return truthy(result), nil
}

// truthy interprets the scalar an EXISTS query returns across drivers:
// booleans on Postgres, integers on MySQL.
func truthy(v any) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case int64:
		return tv == 1
	case int32:
		return tv == 1
	case int:
		return tv == 1
	case uint64:
		return tv == 1
	case []byte:
		return len(tv) == 1 && tv[0] == '1'
	case string:
		return tv == "1"
	default:
		return false
	}
}
