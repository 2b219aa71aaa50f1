package core

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/coregx/wee/internal/security"
)

type condition struct {
	connector string // AND, OR
	column    string
	op        string // =, !=, ..., IS NULL, IS NOT NULL
	value     any
	bind      bool
}

type join struct {
	kind  string // INNER, LEFT
	table string
	left  string
	op    string
	right string
}

type selection struct {
	expr string
	raw  bool
}

type ordering struct {
	column string
	dir    string
}

// Builder assembles one SQL statement against a single table. Chain methods
// mutate and return the builder; terminal methods render and execute.
//
// Identifiers are validated as they are added and quoted with the dialect
// when rendered. Values are always bound. The first invalid call is
// remembered and returned by the terminal method, so chains never panic.
//
// Example:
//
//	rows, err := conn.Table("posts").
//	    Select("id", "title").
//	    Where("user_id", 7).
//	    WhereOp("views", ">", 100).
//	    OrderBy("created_at", "DESC").
//	    Limit(10).
//	    Get()
type Builder struct {
	conn       *Conn
	table      string
	primaryKey string
	selects    []selection
	conditions []condition
	scopes     []condition
	joins      []join
	orders     []ordering
	limit      *int64
	offset     *int64
	ctx        context.Context
	err        error
}

func newBuilder(c *Conn, table string) *Builder {
	b := &Builder{conn: c, table: table, primaryKey: "id", ctx: c.ctx}
	b.check(security.ValidateIdentifier(table))
	return b
}

func (b *Builder) check(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

func (b *Builder) clone() *Builder {
	nb := *b
	nb.selects = slices.Clone(b.selects)
	nb.conditions = slices.Clone(b.conditions)
	nb.scopes = slices.Clone(b.scopes)
	nb.joins = slices.Clone(b.joins)
	nb.orders = slices.Clone(b.orders)
	return &nb
}

// Err returns the first error recorded by a chain method.
func (b *Builder) Err() error {
	return b.err
}

// WithContext sets the context for the statements this builder executes.
func (b *Builder) WithContext(ctx context.Context) *Builder {
	b.ctx = ctx
	return b
}

// PrimaryKey sets the column used by Find and reported by Insert.
// Defaults to "id".
func (b *Builder) PrimaryKey(column string) *Builder {
	b.check(security.ValidateIdentifier(column))
	b.primaryKey = column
	return b
}

// Select replaces the selected columns. No columns means *.
func (b *Builder) Select(columns ...string) *Builder {
	b.selects = b.selects[:0]
	for _, col := range columns {
		b.check(security.ValidateIdentifier(col))
		b.selects = append(b.selects, selection{expr: col})
	}
	return b
}

// SelectRaw appends a raw expression to the select list, such as
// "COUNT(*) AS total". The expression is rejected if it matches a known
// injection pattern but is otherwise emitted as written; never pass user
// input.
func (b *Builder) SelectRaw(expr string) *Builder {
	b.check(security.ValidateExpression(expr))
	b.selects = append(b.selects, selection{expr: expr, raw: true})
	return b
}

// Where adds an AND column = value condition. A nil value renders IS NULL.
func (b *Builder) Where(column string, value any) *Builder {
	return b.where("AND", column, "=", value)
}

// WhereOp adds an AND condition with an explicit comparison operator.
func (b *Builder) WhereOp(column, op string, value any) *Builder {
	return b.where("AND", column, op, value)
}

// OrWhere adds an OR column = value condition.
func (b *Builder) OrWhere(column string, value any) *Builder {
	return b.where("OR", column, "=", value)
}

// OrWhereOp adds an OR condition with an explicit comparison operator.
func (b *Builder) OrWhereOp(column, op string, value any) *Builder {
	return b.where("OR", column, op, value)
}

// WhereNull adds an AND column IS NULL condition.
func (b *Builder) WhereNull(column string) *Builder {
	return b.where("AND", column, "=", nil)
}

// WhereNotNull adds an AND column IS NOT NULL condition.
func (b *Builder) WhereNotNull(column string) *Builder {
	return b.where("AND", column, "!=", nil)
}

// OrWhereNull adds an OR column IS NULL condition.
func (b *Builder) OrWhereNull(column string) *Builder {
	return b.where("OR", column, "=", nil)
}

func (b *Builder) where(connector, column, op string, value any) *Builder {
	if c, ok := b.condition(connector, column, op, value); ok {
		b.conditions = append(b.conditions, c)
	}
	return b
}

// scopeNull adds a column IS NULL condition that is ANDed with the whole
// user condition chain, so OrWhere cannot escape it.
func (b *Builder) scopeNull(column string) *Builder {
	if c, ok := b.condition("AND", column, "=", nil); ok {
		b.scopes = append(b.scopes, c)
	}
	return b
}

func (b *Builder) condition(connector, column, op string, value any) (condition, bool) {
	b.check(security.ValidateIdentifier(column))
	norm, err := security.NormalizeOperator(op)
	if err != nil {
		b.check(err)
		return condition{}, false
	}

	c := condition{connector: connector, column: column, op: norm, value: value, bind: true}
	if value == nil {
		switch norm {
		case "=":
			c.op, c.bind = "IS NULL", false
		case "!=", "<>":
			c.op, c.bind = "IS NOT NULL", false
		default:
			b.check(fmt.Errorf("%w: %s cannot compare with NULL", ErrInvalidOperator, norm))
			return condition{}, false
		}
	}
	return c, true
}

// Join adds an INNER JOIN table ON left op right. Both operands are column
// references.
func (b *Builder) Join(table, left, op, right string) *Builder {
	return b.join("INNER", table, left, op, right)
}

// LeftJoin adds a LEFT JOIN table ON left op right.
func (b *Builder) LeftJoin(table, left, op, right string) *Builder {
	return b.join("LEFT", table, left, op, right)
}

func (b *Builder) join(kind, table, left, op, right string) *Builder {
	b.check(security.ValidateIdentifier(table))
	b.check(security.ValidateIdentifier(left))
	b.check(security.ValidateIdentifier(right))
	norm, err := security.NormalizeOperator(op)
	b.check(err)
	b.joins = append(b.joins, join{kind: kind, table: table, left: left, op: norm, right: right})
	return b
}

// OrderBy appends an ordering term. The direction defaults to ASC.
func (b *Builder) OrderBy(column string, direction ...string) *Builder {
	b.check(security.ValidateIdentifier(column))
	dir := ""
	if len(direction) > 0 {
		dir = direction[0]
	}
	norm, err := security.NormalizeDirection(dir)
	b.check(err)
	b.orders = append(b.orders, ordering{column: column, dir: norm})
	return b
}

// Limit sets the LIMIT clause. Later calls overwrite earlier ones.
func (b *Builder) Limit(n int64) *Builder {
	if n < 0 {
		b.check(fmt.Errorf("%w: limit %d", ErrInvalidLimit, n))
		return b
	}
	b.limit = &n
	return b
}

// Offset sets the OFFSET clause. Later calls overwrite earlier ones.
func (b *Builder) Offset(n int64) *Builder {
	if n < 0 {
		b.check(fmt.Errorf("%w: offset %d", ErrInvalidLimit, n))
		return b
	}
	b.offset = &n
	return b
}

// Get executes the SELECT and returns every row.
func (b *Builder) Get() ([]Row, error) {
	st, err := b.renderSelect()
	if err != nil {
		return nil, err
	}
	return b.conn.fetch(b.ctx, st, 0)
}

// First executes the SELECT with LIMIT 1 and returns the row, or nil when
// there is none. The builder itself is left unchanged.
func (b *Builder) First() (Row, error) {
	st, err := b.clone().Limit(1).renderSelect()
	if err != nil {
		return nil, err
	}
	rows, err := b.conn.fetch(b.ctx, st, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Find returns the row whose primary key equals id, or nil.
func (b *Builder) Find(id any) (Row, error) {
	return b.clone().Where(b.primaryKey, id).First()
}

// Count returns the number of rows matching the conditions. Ordering,
// limit and offset are ignored.
func (b *Builder) Count() (int64, error) {
	q := b.clone()
	q.selects = []selection{{expr: "COUNT(*) AS count", raw: true}}
	q.orders, q.limit, q.offset = nil, nil, nil

	row, err := q.First()
	if err != nil || row == nil {
		return 0, err
	}
	n, ok := row.Int64("count")
	if !ok {
		return 0, fmt.Errorf("wee: unexpected count value %T", row["count"])
	}
	return n, nil
}

// Insert inserts data as one row and returns its primary key. The key is
// taken from data when present, otherwise from RETURNING on dialects that
// support it, otherwise from the driver's LastInsertId.
func (b *Builder) Insert(data map[string]any) (any, error) {
	st, err := b.renderInsert(data)
	if err != nil {
		return nil, err
	}

	var id any
	if v, ok := data[b.primaryKey]; ok {
		if _, err := b.conn.exec(b.ctx, st); err != nil {
			return nil, err
		}
		id = v
	} else if ret := b.conn.dialect.Returning(b.primaryKey); ret != "" {
		st.sql += ret
		rows, err := b.conn.fetch(b.ctx, st, 1)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			id = rows[0][b.primaryKey]
		}
	} else {
		res, err := b.conn.exec(b.ctx, st)
		if err != nil {
			return nil, err
		}
		if lastID, err := res.LastInsertId(); err == nil {
			id = lastID
		}
	}

	b.conn.setLastInsertID(id)
	return id, nil
}

// Update sets data on every row matching the conditions and returns the
// number of affected rows. SET values are bound before WHERE values.
func (b *Builder) Update(data map[string]any) (int64, error) {
	st, err := b.renderUpdate(data)
	if err != nil {
		return 0, err
	}
	res, err := b.conn.exec(b.ctx, st)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Delete removes every row matching the conditions and returns the number
// of affected rows.
func (b *Builder) Delete() (int64, error) {
	st, err := b.renderDelete()
	if err != nil {
		return 0, err
	}
	res, err := b.conn.exec(b.ctx, st)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ToSQL renders the SELECT without executing it.
func (b *Builder) ToSQL() (string, []any, error) {
	st, err := b.renderSelect()
	if err != nil {
		return "", nil, err
	}
	return st.sql, st.args, nil
}

func (b *Builder) renderSelect() (*statement, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := b.renderer()

	cols := "*"
	if len(b.selects) > 0 {
		parts := make([]string, len(b.selects))
		for i, s := range b.selects {
			if s.raw {
				parts[i] = s.expr
				continue
			}
			col, err := r.quote(s.expr)
			if err != nil {
				return nil, err
			}
			parts[i] = col
		}
		cols = strings.Join(parts, ", ")
	}
	table, err := r.quote(b.table)
	if err != nil {
		return nil, err
	}
	r.sb.WriteString("SELECT " + cols + " FROM " + table)

	for _, j := range b.joins {
		jt, err := r.quote(j.table)
		if err != nil {
			return nil, err
		}
		left, err := r.quote(j.left)
		if err != nil {
			return nil, err
		}
		right, err := r.quote(j.right)
		if err != nil {
			return nil, err
		}
		r.sb.WriteString(" " + j.kind + " JOIN " + jt + " ON " + left + " " + j.op + " " + right)
	}

	if err := r.where(b.scopes, b.conditions); err != nil {
		return nil, err
	}

	if len(b.orders) > 0 {
		parts := make([]string, len(b.orders))
		for i, o := range b.orders {
			col, err := r.quote(o.column)
			if err != nil {
				return nil, err
			}
			parts[i] = col + " " + o.dir
		}
		r.sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	switch {
	case b.limit != nil:
		r.sb.WriteString(" LIMIT " + strconv.FormatInt(*b.limit, 10))
	case b.offset != nil:
		if lim := unboundedLimit(b.conn.dialect.Name()); lim != "" {
			r.sb.WriteString(" LIMIT " + lim)
		}
	}
	if b.offset != nil {
		r.sb.WriteString(" OFFSET " + strconv.FormatInt(*b.offset, 10))
	}

	return r.statement(b.table), nil
}

func (b *Builder) renderInsert(data map[string]any) (*statement, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	r := b.renderer()
	table, err := r.quote(b.table)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(data)
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	for i, k := range keys {
		col, err := r.quote(k)
		if err != nil {
			return nil, err
		}
		cols[i] = col
		marks[i] = r.bind(k, data[k])
	}
	r.sb.WriteString("INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")")
	return r.statement(b.table), nil
}

func (b *Builder) renderUpdate(data map[string]any) (*statement, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	r := b.renderer()
	table, err := r.quote(b.table)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(data)
	sets := make([]string, len(keys))
	for i, k := range keys {
		col, err := r.quote(k)
		if err != nil {
			return nil, err
		}
		sets[i] = col + " = " + r.bind(k, data[k])
	}
	r.sb.WriteString("UPDATE " + table + " SET " + strings.Join(sets, ", "))
	if err := r.where(b.scopes, b.conditions); err != nil {
		return nil, err
	}
	return r.statement(b.table), nil
}

func (b *Builder) renderDelete() (*statement, error) {
	if b.err != nil {
		return nil, b.err
	}

	r := b.renderer()
	table, err := r.quote(b.table)
	if err != nil {
		return nil, err
	}
	r.sb.WriteString("DELETE FROM " + table)
	if err := r.where(b.scopes, b.conditions); err != nil {
		return nil, err
	}
	return r.statement(b.table), nil
}

// unboundedLimit is the LIMIT a dialect needs before a bare OFFSET.
func unboundedLimit(dialect string) string {
	switch dialect {
	case "mysql":
		return "18446744073709551615"
	case "sqlite":
		return "-1"
	}
	return ""
}

// renderer accumulates statement text and bind values. Placeholders are
// numbered across the whole statement so that $n dialects stay aligned with
// the bind order.
type renderer struct {
	b       *Builder
	sb      strings.Builder
	args    []any
	columns []string
}

func (b *Builder) renderer() *renderer {
	return &renderer{b: b}
}

func (r *renderer) bind(column string, v any) string {
	r.args = append(r.args, v)
	r.columns = append(r.columns, column)
	return r.b.conn.dialect.Placeholder(len(r.args))
}

// quote validates name and quotes each dotted part, leaving * unquoted.
func (r *renderer) quote(name string) (string, error) {
	if err := security.ValidateIdentifier(name); err != nil {
		return "", err
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = r.b.conn.dialect.QuoteIdentifier(p)
		}
	}
	return strings.Join(parts, "."), nil
}

// where renders the WHERE clause. Scopes come first and are ANDed with the
// user conditions, which are parenthesized when they contain an OR. Bind
// values follow emission order.
func (r *renderer) where(scopes, conds []condition) error {
	if len(scopes) == 0 && len(conds) == 0 {
		return nil
	}
	r.sb.WriteString(" WHERE ")
	for i, c := range scopes {
		if i > 0 {
			r.sb.WriteString(" AND ")
		}
		if err := r.condition(c); err != nil {
			return err
		}
	}
	if len(conds) == 0 {
		return nil
	}

	group := len(scopes) > 0 && slices.ContainsFunc(conds[1:], func(c condition) bool {
		return c.connector == "OR"
	})
	if len(scopes) > 0 {
		r.sb.WriteString(" AND ")
	}
	if group {
		r.sb.WriteString("(")
	}
	for i, c := range conds {
		if i > 0 {
			r.sb.WriteString(" " + c.connector + " ")
		}
		if err := r.condition(c); err != nil {
			return err
		}
	}
	if group {
		r.sb.WriteString(")")
	}
	return nil
}

func (r *renderer) condition(c condition) error {
	col, err := r.quote(c.column)
	if err != nil {
		return err
	}
	if c.bind {
		r.sb.WriteString(col + " " + c.op + " " + r.bind(c.column, c.value))
	} else {
		r.sb.WriteString(col + " " + c.op)
	}
	return nil
}

func (r *renderer) statement(table string) *statement {
	return &statement{sql: r.sb.String(), args: r.args, columns: r.columns, table: table}
}
