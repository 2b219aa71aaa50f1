package core

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/wee/internal/logger"
)

func seedBlog(t *testing.T, conn *Conn) (*testUser, *testUser) {
	t.Helper()
	ada, err := Create[testUser](conn, map[string]any{"name": "ada"})
	require.NoError(t, err)
	grace, err := Create[testUser](conn, map[string]any{"name": "grace"})
	require.NoError(t, err)

	for _, title := range []string{"notes", "engines"} {
		_, err := Create[testPost](conn, map[string]any{"user_id": ada.Key(), "title": title})
		require.NoError(t, err)
	}
	_, err = Create[testProfile](conn, map[string]any{"user_id": ada.Key(), "bio": "analyst"})
	require.NoError(t, err)
	return ada, grace
}

func TestRelation_HasMany(t *testing.T) {
	conn, _ := setupTestConn(t)
	ada, grace := seedBlog(t, conn)

	posts, err := HasMany[testPost](ada).Get()
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "notes", posts[0].Get("title"))

	none, err := HasMany[testPost](grace).Get()
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	dynamic, ok := ada.Get("posts").([]*testPost)
	require.True(t, ok)
	assert.Len(t, dynamic, 2)
}

func TestRelation_HasOne(t *testing.T) {
	conn, _ := setupTestConn(t)
	ada, grace := seedBlog(t, conn)

	profile, err := HasOne[testProfile](ada).Get()
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "analyst", profile.Get("bio"))

	missing, err := HasOne[testProfile](grace).Get()
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Nil(t, grace.Get("profile"))
}

func TestRelation_BelongsTo(t *testing.T) {
	conn, _ := setupTestConn(t)
	ada, _ := seedBlog(t, conn)

	posts, err := HasMany[testPost](ada).Get()
	require.NoError(t, err)

	author, ok := posts[0].Get("author").(*testUser)
	require.True(t, ok)
	assert.Equal(t, ada.Key(), author.Key())

	profile, err := HasOne[testProfile](ada).Get()
	require.NoError(t, err)
	owner, err := BelongsTo[testUser](profile).Get()
	require.NoError(t, err)
	assert.Equal(t, "ada", owner.Get("name"))

	orphan := New[testPost](conn, map[string]any{"title": "orphan"})
	assert.Nil(t, orphan.Get("author"))
}

func TestRelation_SoftDeletedOwnerIsHidden(t *testing.T) {
	conn, _ := setupTestConn(t)
	ada, _ := seedBlog(t, conn)

	profile, err := HasOne[testProfile](ada).Get()
	require.NoError(t, err)
	_, err = ada.Delete()
	require.NoError(t, err)

	owner, err := BelongsTo[testUser](profile).Get()
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestRelation_CachedPerInstance(t *testing.T) {
	conn, log := setupTestConn(t)
	ada, grace := seedBlog(t, conn)

	log.reset()
	first := ada.Get("posts")
	second := ada.Get("posts")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, log.count())

	log.reset()
	assert.Nil(t, grace.Get("profile"))
	assert.Nil(t, grace.Get("profile"))
	assert.Equal(t, 1, log.count(), "empty results are cached too")

	reloaded, err := Find[testUser](conn, ada.Key())
	require.NoError(t, err)
	log.reset()
	_ = reloaded.Get("posts")
	assert.Equal(t, 1, log.count(), "the cache belongs to one instance")

	log.reset()
	_, err = HasMany[testPost](ada).Get()
	require.NoError(t, err)
	assert.Equal(t, 1, log.count(), "typed Get always queries")
}

func TestRelation_UnknownAndNil(t *testing.T) {
	conn, log := setupTestConn(t)
	ada, _ := seedBlog(t, conn)

	log.reset()
	v, err := ada.Related("nope")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ada.Related("missing")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Zero(t, log.count())

	tag := New[testTag](conn, nil)
	v, err = tag.Related("anything")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRelation_ErrorsAreNotCached(t *testing.T) {
	var buf bytes.Buffer
	conn, _ := setupTestConn(t, WithLogger(logger.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))))
	ada, _ := seedBlog(t, conn)

	_, err := ada.Related("broken")
	assert.ErrorIs(t, err, errBrokenRelation)
	_, err = ada.Related("broken")
	assert.ErrorIs(t, err, errBrokenRelation)

	assert.Nil(t, ada.Get("broken"))
	assert.Contains(t, buf.String(), "relation resolution failed")
}

func TestRelation_FailureWithoutConnection(t *testing.T) {
	u := &testUser{}
	Attach(nil, u)

	assert.NotPanics(t, func() {
		assert.Nil(t, u.Get("broken"))
	})
	_, err := u.Related("broken")
	assert.ErrorIs(t, err, errBrokenRelation)
}

func TestRelation_OrChainKeepsSoftDeletedOwnerHidden(t *testing.T) {
	conn, _ := setupTestConn(t)
	ada, grace := seedBlog(t, conn)
	_, err := ada.Delete()
	require.NoError(t, err)

	owners, err := Get[testUser](Query[testUser](conn).Where("id", grace.Key()).OrWhere("id", ada.Key()))
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, "grace", owners[0].Get("name"))

	posts, err := HasMany[testPost](ada).Get()
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	owner, err := BelongsTo[testUser](posts[0], ForeignKey("user_id"), OwnerKey("id")).Get()
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestRelation_CustomKeys(t *testing.T) {
	conn, _ := setupTestConn(t)
	ada, _ := seedBlog(t, conn)

	// Profiles point at users through user_id; address them by the
	// profile's own id instead to check that overrides are honored.
	profile, err := HasOne[testProfile](ada, ForeignKey("id"), LocalKey("id")).Get()
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, int64(1), profile.Key())

	rel := BelongsTo[testUser](profile, ForeignKey("user_id"), OwnerKey("id"))
	assert.Equal(t, "user_id", rel.keys.foreignKey)
	assert.Equal(t, "id", rel.keys.localKey)

	detached := &testPost{}
	_, err = HasMany[testPost](detached).Get()
	assert.ErrorIs(t, err, ErrNoConnection)
}
