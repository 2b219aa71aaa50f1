package core

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type testUser struct {
	Model
	events []string
}

var testUserSchema = NewSchema("User",
	Fillable("name", "email", "password"),
	SoftDeletes(),
)

func (*testUser) Schema() *Schema { return testUserSchema }

func (u *testUser) Relation(name string) Relation {
	switch name {
	case "posts":
		return HasMany[testPost](u)
	case "profile":
		return HasOne[testProfile](u)
	case "broken":
		return failingRelation{}
	case "missing":
		var r *HasOneRelation[testProfile, *testProfile]
		return r
	}
	return nil
}

// OnCreating hashes a plain text password before it is stored.
func (u *testUser) OnCreating() error {
	u.events = append(u.events, "creating")
	if pw, ok := u.Attribute("password"); ok {
		plain, _ := pw.(string)
		if plain == "" {
			return errors.New("password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
		if err != nil {
			return err
		}
		u.Set("password", string(hash))
	}
	return nil
}

func (u *testUser) OnSaving() error {
	u.events = append(u.events, "saving")
	if u.Get("name") == "forbidden" {
		return errors.New("name is reserved")
	}
	return nil
}

func (u *testUser) OnSaved() error    { u.events = append(u.events, "saved"); return nil }
func (u *testUser) OnCreated() error  { u.events = append(u.events, "created"); return nil }
func (u *testUser) OnUpdating() error { u.events = append(u.events, "updating"); return nil }
func (u *testUser) OnUpdated() error  { u.events = append(u.events, "updated"); return nil }
func (u *testUser) OnDeleting() error { u.events = append(u.events, "deleting"); return nil }
func (u *testUser) OnDeleted() error  { u.events = append(u.events, "deleted"); return nil }

type testPost struct{ Model }

var testPostSchema = NewSchema("Post", Fillable("user_id", "title", "views"))

func (*testPost) Schema() *Schema { return testPostSchema }

func (p *testPost) Relation(name string) Relation {
	if name == "author" {
		return BelongsTo[testUser](p, ForeignKey("user_id"), OwnerKey("id"))
	}
	return nil
}

// testOpenPost maps the posts table with nothing guarded, the primary key
// included.
type testOpenPost struct{ Model }

var testOpenPostSchema = NewSchema("OpenPost", Table("posts"), Guarded())

func (*testOpenPost) Schema() *Schema { return testOpenPostSchema }

type testProfile struct{ Model }

var testProfileSchema = NewSchema("Profile", WithoutTimestamps())

func (*testProfile) Schema() *Schema { return testProfileSchema }

func (p *testProfile) Relation(name string) Relation {
	if name == "user" {
		return BelongsTo[testUser](p)
	}
	return nil
}

type testTag struct{ Model }

var testTagSchema = NewSchema("Tag",
	Fillable("label"),
	WithoutTimestamps(),
	KeyGenerator(UUIDKeys),
)

func (*testTag) Schema() *Schema { return testTagSchema }

var errBrokenRelation = errors.New("relation unavailable")

type failingRelation struct{}

func (failingRelation) Resolve() (any, error) { return nil, errBrokenRelation }
