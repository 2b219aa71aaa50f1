package core

// recordPtr constrains a type parameter to *T where *T is a Record. It lets
// the finders allocate and return typed records: Find[User] yields *User.
type recordPtr[T any] interface {
	*T
	Record
}

func schemaOf[T any, P recordPtr[T]]() *Schema {
	return P(new(T)).Schema()
}

// New allocates a record bound to conn and fills it with attrs.
func New[T any, P recordPtr[T]](conn *Conn, attrs map[string]any) P {
	rec := P(new(T))
	Attach(conn, rec)
	rec.model().Fill(attrs)
	return rec
}

// Query returns a builder over T's table. Soft-deleted rows are excluded
// when T uses soft deletes.
func Query[T any, P recordPtr[T]](conn *Conn) *Builder {
	s := schemaOf[T, P]()
	b := conn.Table(s.Table).PrimaryKey(s.PrimaryKey)
	if s.SoftDeletes {
		b.scopeNull(s.DeletedAtColumn)
	}
	return b
}

// WithTrashed returns a builder over T's table that includes soft-deleted rows.
func WithTrashed[T any, P recordPtr[T]](conn *Conn) *Builder {
	s := schemaOf[T, P]()
	return conn.Table(s.Table).PrimaryKey(s.PrimaryKey)
}

// Where returns Query[T] filtered by column = value, ready for further
// chaining and Get or First.
func Where[T any, P recordPtr[T]](conn *Conn, column string, value any) *Builder {
	return Query[T, P](conn).Where(column, value)
}

// Find returns the record with primary key id, or nil when there is none.
func Find[T any, P recordPtr[T]](conn *Conn, id any) (P, error) {
	s := schemaOf[T, P]()
	return First[T, P](Query[T, P](conn).Where(s.PrimaryKey, id))
}

// All returns every record of T's table.
func All[T any, P recordPtr[T]](conn *Conn) ([]P, error) {
	return Get[T, P](Query[T, P](conn))
}

// Create builds a record from attrs, saves it and returns it.
func Create[T any, P recordPtr[T]](conn *Conn, attrs map[string]any) (P, error) {
	rec := New[T, P](conn, attrs)
	if err := rec.model().Save(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get executes b and hydrates every row as a T.
func Get[T any, P recordPtr[T]](b *Builder) ([]P, error) {
	rows, err := b.Get()
	if err != nil {
		return nil, err
	}
	out := make([]P, len(rows))
	for i, row := range rows {
		rec := P(new(T))
		hydrate(b.conn, rec, row)
		out[i] = rec
	}
	return out, nil
}

// First executes b with LIMIT 1 and hydrates the row as a T, or returns nil.
func First[T any, P recordPtr[T]](b *Builder) (P, error) {
	row, err := b.First()
	if err != nil || row == nil {
		return nil, err
	}
	rec := P(new(T))
	hydrate(b.conn, rec, row)
	return rec, nil
}
