package core

// Relation resolves associated records for the dynamic read path.
// HasOne, HasMany and BelongsTo return implementations.
type Relation interface {
	Resolve() (any, error)
}

// Relater is implemented by records that declare relations. Relation
// returns the relation called name, or nil for an unknown name.
//
// Example:
//
//	func (u *User) Relation(name string) wee.Relation {
//	    switch name {
//	    case "posts":
//	        return wee.HasMany[Post](u)
//	    case "profile":
//	        return wee.HasOne[Profile](u)
//	    }
//	    return nil
//	}
type Relater interface {
	Relation(name string) Relation
}

type relationKeys struct {
	foreignKey string
	localKey   string
}

// RelationOption overrides a derived relation key.
type RelationOption func(*relationKeys)

// ForeignKey sets the foreign key column.
func ForeignKey(column string) RelationOption {
	return func(k *relationKeys) { k.foreignKey = column }
}

// LocalKey sets the parent column a HasOne or HasMany foreign key refers to.
func LocalKey(column string) RelationOption {
	return func(k *relationKeys) { k.localKey = column }
}

// OwnerKey sets the related column a BelongsTo foreign key refers to.
func OwnerKey(column string) RelationOption {
	return LocalKey(column)
}

func resolveKeys(fk, lk string, opts []RelationOption) relationKeys {
	k := relationKeys{foreignKey: fk, localKey: lk}
	for _, opt := range opts {
		opt(&k)
	}
	return k
}

// HasOneRelation is a one-to-one relation from a parent to the T whose
// foreign key holds the parent's local key.
type HasOneRelation[T any, P recordPtr[T]] struct {
	parent Record
	keys   relationKeys
}

// HasOne declares that parent has one T. The foreign key defaults to the
// lowercased parent type name plus _id, the local key to the parent's
// primary key.
func HasOne[T any, P recordPtr[T]](parent Record, opts ...RelationOption) *HasOneRelation[T, P] {
	s := parent.Schema()
	return &HasOneRelation[T, P]{parent: parent, keys: resolveKeys(s.foreignKey(), s.PrimaryKey, opts)}
}

// Get loads the related record, or nil. It always queries; reads through
// Model.Get and Model.Related are cached.
func (r *HasOneRelation[T, P]) Get() (P, error) {
	m := r.parent.model()
	if err := m.attached(); err != nil {
		return nil, err
	}
	value := m.attributes[r.keys.localKey]
	if value == nil {
		return nil, nil
	}
	return First[T, P](Query[T, P](m.conn).Where(r.keys.foreignKey, value))
}

// Resolve implements Relation.
func (r *HasOneRelation[T, P]) Resolve() (any, error) {
	rec, err := r.Get()
	if err != nil || (*T)(rec) == nil {
		return nil, err
	}
	return rec, nil
}

// HasManyRelation is a one-to-many relation from a parent to every T whose
// foreign key holds the parent's local key.
type HasManyRelation[T any, P recordPtr[T]] struct {
	parent Record
	keys   relationKeys
}

// HasMany declares that parent has many T, with the same key defaults as HasOne.
func HasMany[T any, P recordPtr[T]](parent Record, opts ...RelationOption) *HasManyRelation[T, P] {
	s := parent.Schema()
	return &HasManyRelation[T, P]{parent: parent, keys: resolveKeys(s.foreignKey(), s.PrimaryKey, opts)}
}

// Get loads the related records. The result is empty, never nil, when
// there are none.
func (r *HasManyRelation[T, P]) Get() ([]P, error) {
	m := r.parent.model()
	if err := m.attached(); err != nil {
		return nil, err
	}
	value := m.attributes[r.keys.localKey]
	if value == nil {
		return []P{}, nil
	}
	recs, err := Get[T, P](Query[T, P](m.conn).Where(r.keys.foreignKey, value))
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Resolve implements Relation.
func (r *HasManyRelation[T, P]) Resolve() (any, error) {
	recs, err := r.Get()
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// BelongsToRelation is the inverse of HasOne and HasMany: the child's
// foreign key holds the owner's key.
type BelongsToRelation[T any, P recordPtr[T]] struct {
	child Record
	keys  relationKeys
}

// BelongsTo declares that child belongs to a T. The foreign key defaults to
// the lowercased T type name plus _id, the owner key to T's primary key.
func BelongsTo[T any, P recordPtr[T]](child Record, opts ...RelationOption) *BelongsToRelation[T, P] {
	s := schemaOf[T, P]()
	return &BelongsToRelation[T, P]{child: child, keys: resolveKeys(s.foreignKey(), s.PrimaryKey, opts)}
}

// Get loads the owner, or nil.
func (r *BelongsToRelation[T, P]) Get() (P, error) {
	m := r.child.model()
	if err := m.attached(); err != nil {
		return nil, err
	}
	value := m.attributes[r.keys.foreignKey]
	if value == nil {
		return nil, nil
	}
	return First[T, P](Query[T, P](m.conn).Where(r.keys.localKey, value))
}

// Resolve implements Relation.
func (r *BelongsToRelation[T, P]) Resolve() (any, error) {
	rec, err := r.Get()
	if err != nil || (*T)(rec) == nil {
		return nil, err
	}
	return rec, nil
}
