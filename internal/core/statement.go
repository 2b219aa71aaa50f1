package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/coregx/wee/internal/tracer"
)

// statement is one rendered SQL statement. columns[i] names the column
// args[i] is bound to, when known, so that logging can mask it.
type statement struct {
	sql     string
	args    []any
	columns []string
	table   string
}

// Query executes a raw statement and returns the cursor. The caller must
// close it. Raw queries are not prepared through the statement cache.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	st := &statement{sql: query, args: args}
	var rows *sqlx.Rows
	err := c.observe(ctx, "query", st, func(ctx context.Context) (int64, error) {
		var err error
		rows, err = c.queryer().QueryxContext(ctx, st.sql, st.args...)
		return 0, err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchOne executes a raw statement and returns its first row, or nil when
// it returns none.
func (c *Conn) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := c.fetch(ctx, &statement{sql: query, args: args}, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FetchAll executes a raw statement and returns every row.
func (c *Conn) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	return c.fetch(ctx, &statement{sql: query, args: args}, 0)
}

// Execute executes a raw statement and returns the number of affected rows.
func (c *Conn) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.exec(ctx, &statement{sql: query, args: args})
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (c *Conn) queryer() sqlx.QueryerContext {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// prepare returns a prepared statement for query. Transactions bypass the
// statement cache; their statements must be closed by the caller, which is
// signaled by the second return value.
func (c *Conn) prepare(ctx context.Context, query string) (*sqlx.Stmt, bool, error) {
	if c.tx != nil {
		stmt, err := c.tx.PreparexContext(ctx, query)
		return stmt, true, err
	}

	if stmt, ok := c.stmtCache.Get(query); ok {
		return stmt, false, nil
	}
	stmt, err := c.db.PreparexContext(ctx, query)
	if err != nil {
		return nil, false, err
	}
	return c.stmtCache.Put(query, stmt), false, nil
}

func (c *Conn) exec(ctx context.Context, st *statement) (sql.Result, error) {
	var result sql.Result
	err := c.observe(ctx, "exec", st, func(ctx context.Context) (int64, error) {
		stmt, needsClose, err := c.prepare(ctx, st.sql)
		if err != nil {
			return 0, err
		}
		if needsClose {
			defer func() { _ = stmt.Close() }()
		}
		result, err = stmt.ExecContext(ctx, st.args...)
		if err != nil {
			return 0, err
		}
		n, _ := result.RowsAffected()
		return n, nil
	})
	return result, err
}

// fetch runs a row-returning statement and scans at most limit rows; zero
// means all.
func (c *Conn) fetch(ctx context.Context, st *statement, limit int) ([]Row, error) {
	var out []Row
	err := c.observe(ctx, "query", st, func(ctx context.Context) (int64, error) {
		stmt, needsClose, err := c.prepare(ctx, st.sql)
		if err != nil {
			return 0, err
		}
		if needsClose {
			defer func() { _ = stmt.Close() }()
		}

		rows, err := stmt.QueryxContext(ctx, st.args...)
		if err != nil {
			return 0, err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			row := make(map[string]any)
			if err := rows.MapScan(row); err != nil {
				return int64(len(out)), err
			}
			out = append(out, newRow(row))
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return int64(len(out)), rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// observe runs fn with tracing, timing, the query hook and logging around
// it, and turns a driver failure into an *Error.
func (c *Conn) observe(ctx context.Context, op string, st *statement, fn func(context.Context) (int64, error)) error {
	if ctx == nil {
		ctx = c.ctx
	}
	if c.tx != nil && c.txDone.Load() {
		return ErrTxDone
	}

	ctx, span := c.tracer.Start(ctx, "wee."+op)
	start := time.Now()
	n, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		err = &Error{Op: op, SQL: st.sql, Err: c.dialect.TranslateError(err)}
	}
	operation := tracer.DetectOperation(st.sql)

	span.End(&tracer.Metadata{
		System:       c.dialect.Name(),
		Statement:    st.sql,
		Operation:    operation,
		Table:        st.table,
		Duration:     elapsed,
		RowsAffected: n,
		Err:          err,
	})

	if c.queryHook != nil {
		c.queryHook(ctx, QueryEvent{
			SQL:          st.sql,
			Args:         st.args,
			Table:        st.table,
			Duration:     elapsed,
			RowsAffected: n,
			Error:        err,
			Operation:    operation,
		})
	}

	c.logStatement(op, st, n, elapsed, err)
	return err
}

func (c *Conn) logStatement(op string, st *statement, n int64, elapsed time.Duration, err error) {
	params := c.sanitizer.Format(c.sanitizer.Mask(st.columns, st.args))
	if err != nil {
		c.logger.Error("query execution failed",
			"sql", st.sql,
			"params", params,
			"duration_ms", elapsed.Milliseconds(),
			"database", c.driverName,
			"error", err,
		)
		return
	}

	countKey := "rows_affected"
	if op == "query" {
		countKey = "rows"
	}
	c.logger.Info("query executed",
		"sql", st.sql,
		"params", params,
		"duration_ms", elapsed.Milliseconds(),
		countKey, n,
		"database", c.driverName,
	)
}
