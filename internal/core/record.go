package core

import (
	"maps"
	"reflect"
	"sort"
	"time"

	"github.com/coregx/wee/internal/util"
)

// Record is implemented by every type that embeds Model and declares a
// Schema. The unexported method is promoted from Model.
//
// Example:
//
//	type User struct {
//	    wee.Model
//	}
//
//	func (*User) Schema() *wee.Schema { return userSchema }
type Record interface {
	Schema() *Schema
	model() *Model
}

// State is the lifecycle state of a record.
type State int

const (
	// StateUnsaved is a record that has never been inserted.
	StateUnsaved State = iota
	// StatePersisted is a record backed by a live row.
	StatePersisted
	// StateSoftDeleted is a record whose row carries a deletion timestamp.
	StateSoftDeleted
	// StateRemoved is a record whose row was deleted. It is terminal.
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateUnsaved:
		return "unsaved"
	case StatePersisted:
		return "persisted"
	case StateSoftDeleted:
		return "soft-deleted"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// Model is the active record base. Embed it in a struct and use New, Attach
// or the finders to bind instances to a connection.
//
// A Model is not safe for concurrent use; share the Conn, not the record.
type Model struct {
	self       Record
	conn       *Conn
	attributes map[string]any
	original   map[string]any
	exists     bool
	removed    bool
	relations  map[string]any
}

func (m *Model) model() *Model { return m }

// Attach binds rec to conn. It must be called before any other method on a
// record created with a composite literal; New and the finders do it.
func Attach(conn *Conn, rec Record) {
	m := rec.model()
	m.self = rec
	m.conn = conn
	if m.attributes == nil {
		m.attributes = make(map[string]any)
	}
	if m.original == nil {
		m.original = make(map[string]any)
	}
	if m.relations == nil {
		m.relations = make(map[string]any)
	}
}

// hydrate binds rec to conn as the persisted image of row. Fillable rules
// do not apply to rows read from the database.
func hydrate(conn *Conn, rec Record, row Row) {
	Attach(conn, rec)
	m := rec.model()
	m.attributes = maps.Clone(map[string]any(row))
	m.original = maps.Clone(map[string]any(row))
	m.exists = true
}

func (m *Model) schema() *Schema {
	return m.self.Schema()
}

func (m *Model) attached() error {
	if m.self == nil || m.conn == nil {
		return ErrNoConnection
	}
	return nil
}

// Conn returns the connection the record is bound to.
func (m *Model) Conn() *Conn {
	return m.conn
}

// Fill assigns every fillable key of attrs and returns the rejected keys in
// sorted order. Rejection is silent otherwise.
func (m *Model) Fill(attrs map[string]any) []string {
	var rejected []string
	for k, v := range attrs {
		if !m.Set(k, v) {
			rejected = append(rejected, k)
		}
	}
	sort.Strings(rejected)
	return rejected
}

// FillStruct fills from the db-tagged fields of a struct.
func (m *Model) FillStruct(v any) ([]string, error) {
	attrs, err := util.StructToMap(v)
	if err != nil {
		return nil, err
	}
	return m.Fill(attrs), nil
}

// Set assigns one attribute if it is fillable and reports whether it did.
func (m *Model) Set(key string, value any) bool {
	if m.self == nil {
		return false
	}
	s := m.schema()
	if !s.IsFillable(key) || (m.exists && key == s.PrimaryKey) {
		return false
	}
	m.attributes[key] = value
	return true
}

// Get returns the attribute called key. When there is none and the record
// declares a relation of that name, the relation is resolved and cached.
// Anything else, including a relation that fails to load, reads as nil.
func (m *Model) Get(key string) any {
	if v, ok := m.attributes[key]; ok {
		return v
	}
	v, err := m.Related(key)
	if err != nil {
		if m.conn != nil {
			m.conn.logger.Warn("relation resolution failed",
				"record", m.schema().Name,
				"relation", key,
				"error", err,
			)
		}
		return nil
	}
	return v
}

// Attribute returns the stored attribute and whether it is present.
func (m *Model) Attribute(key string) (any, bool) {
	v, ok := m.attributes[key]
	return v, ok
}

// Has reports whether the attribute is present.
func (m *Model) Has(key string) bool {
	_, ok := m.attributes[key]
	return ok
}

// Related resolves the relation called name through the record's Relater
// implementation. Results, including an empty result, are cached on this
// instance for its lifetime; errors are not cached. An unknown name yields
// nil without error.
func (m *Model) Related(name string) (any, error) {
	if v, ok := m.relations[name]; ok {
		return v, nil
	}
	r, ok := m.self.(Relater)
	if !ok {
		return nil, nil
	}
	rel := r.Relation(name)
	if rel == nil || isNilPointer(rel) {
		return nil, nil
	}

	v, err := rel.Resolve()
	if err != nil {
		return nil, err
	}
	m.relations[name] = v
	return v, nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// Exists reports whether the record is backed by a row, soft-deleted or not.
func (m *Model) Exists() bool {
	return m.exists
}

// Key returns the primary key value.
func (m *Model) Key() any {
	if m.self == nil {
		return nil
	}
	return m.attributes[m.schema().PrimaryKey]
}

// persistedKey is the key of the row the record was loaded from or saved
// as, so a changed key attribute cannot retarget UPDATE or DELETE.
func (m *Model) persistedKey(s *Schema) any {
	if v, ok := m.original[s.PrimaryKey]; ok {
		return v
	}
	return m.attributes[s.PrimaryKey]
}

// Trashed reports whether the record carries a soft delete timestamp.
func (m *Model) Trashed() bool {
	if m.self == nil {
		return false
	}
	s := m.schema()
	return s.SoftDeletes && m.attributes[s.DeletedAtColumn] != nil
}

// State returns the lifecycle state.
func (m *Model) State() State {
	switch {
	case m.removed:
		return StateRemoved
	case !m.exists:
		return StateUnsaved
	case m.Trashed():
		return StateSoftDeleted
	}
	return StatePersisted
}

// IsDirty reports whether any of keys, or any attribute when none are
// given, differs from the last saved or loaded value.
func (m *Model) IsDirty(keys ...string) bool {
	dirty := m.Dirty()
	if len(keys) == 0 {
		return len(dirty) > 0
	}
	for _, k := range keys {
		if _, ok := dirty[k]; ok {
			return true
		}
	}
	return false
}

// Dirty returns the attributes changed since the last save or load.
func (m *Model) Dirty() map[string]any {
	dirty := make(map[string]any)
	for k, v := range m.attributes {
		orig, ok := m.original[k]
		if !ok || !reflect.DeepEqual(orig, v) {
			dirty[k] = v
		}
	}
	return dirty
}

// Original returns the value key had when the record was last saved or loaded.
func (m *Model) Original(key string) any {
	return m.original[key]
}

// Update fills attrs and saves.
func (m *Model) Update(attrs map[string]any) error {
	m.Fill(attrs)
	return m.Save()
}

// Save inserts an unsaved record or updates a persisted one, maintaining
// timestamps and running the lifecycle hooks. Saving an unmodified record
// still issues an UPDATE, advancing updated_at.
func (m *Model) Save() error {
	if err := m.attached(); err != nil {
		return err
	}
	if m.removed {
		return ErrRecordRemoved
	}
	s := m.schema()

	if s.Timestamps {
		now := m.timestamp()
		if !m.exists {
			m.attributes[s.CreatedAtColumn] = now
		}
		m.attributes[s.UpdatedAtColumn] = now
	}

	if err := fire(m.self, eventSaving); err != nil {
		return err
	}
	if m.exists {
		if err := m.performUpdate(s); err != nil {
			return err
		}
	} else {
		if err := m.performInsert(s); err != nil {
			return err
		}
	}
	if err := fire(m.self, eventSaved); err != nil {
		return err
	}

	m.original = maps.Clone(m.attributes)
	return nil
}

func (m *Model) performInsert(s *Schema) error {
	if err := fire(m.self, eventCreating); err != nil {
		return err
	}
	if _, ok := m.attributes[s.PrimaryKey]; !ok && s.KeyGenerator != nil {
		m.attributes[s.PrimaryKey] = s.KeyGenerator()
	}

	id, err := m.table(s).Insert(m.attributes)
	if err != nil {
		return err
	}
	m.attributes[s.PrimaryKey] = id
	m.exists = true

	return fire(m.self, eventCreated)
}

func (m *Model) performUpdate(s *Schema) error {
	if err := fire(m.self, eventUpdating); err != nil {
		return err
	}

	data := maps.Clone(m.attributes)
	delete(data, s.PrimaryKey)
	if len(data) > 0 {
		if _, err := m.table(s).Where(s.PrimaryKey, m.persistedKey(s)).Update(data); err != nil {
			return err
		}
	}

	return fire(m.self, eventUpdated)
}

// Delete removes the record. With soft deletes it stamps the deletion
// column and saves instead. It returns false without doing anything when
// the record is unsaved, removed or already soft-deleted.
func (m *Model) Delete() (bool, error) {
	if err := m.attached(); err != nil {
		return false, err
	}
	if !m.exists || m.removed || m.Trashed() {
		return false, nil
	}
	s := m.schema()

	if err := fire(m.self, eventDeleting); err != nil {
		return false, err
	}
	if s.SoftDeletes {
		before := maps.Clone(m.attributes)
		m.attributes[s.DeletedAtColumn] = m.timestamp()
		if err := m.Save(); err != nil {
			m.attributes = before
			return false, err
		}
	} else if err := m.remove(s); err != nil {
		return false, err
	}
	if err := fire(m.self, eventDeleted); err != nil {
		return true, err
	}
	return true, nil
}

// ForceDelete removes the row even when soft deletes are enabled. It runs
// no hooks and returns false for records that were never saved or are
// already removed.
func (m *Model) ForceDelete() (bool, error) {
	if err := m.attached(); err != nil {
		return false, err
	}
	if !m.exists || m.removed {
		return false, nil
	}
	if err := m.remove(m.schema()); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Model) remove(s *Schema) error {
	if _, err := m.table(s).Where(s.PrimaryKey, m.persistedKey(s)).Delete(); err != nil {
		return err
	}
	m.exists = false
	m.removed = true
	return nil
}

// table is the unscoped builder for the record's table.
func (m *Model) table(s *Schema) *Builder {
	return m.conn.Table(s.Table).PrimaryKey(s.PrimaryKey)
}

func (m *Model) timestamp() string {
	return m.conn.now().Format(time.DateTime)
}
