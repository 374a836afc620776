package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/intelbench/internal/model"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testProject(id, name string, created time.Time) *model.Project {
	return &model.Project{
		ID:   id,
		Name: name,
		ACHMatrices: []model.ACHMatrix{{
			ID:         "m1",
			Name:       "Attribution",
			Hypotheses: []model.Hypothesis{{ID: "h1", Name: "APT"}},
			Evidence:   []model.Evidence{{ID: "e1", Credibility: model.LevelHigh, Relevance: model.LevelLow}},
			Ratings:    model.Ratings{{EvidenceID: "e1", HypothesisID: "h1"}: model.RatingInconsistent},
			CreatedAt:  created,
			UpdatedAt:  created,
		}},
		BiasChecklists: []model.BiasChecklist{},
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestBoltStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Put(ctx, testProject("p1", "Case", created)))

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Case", got.Name)
	assert.True(t, got.CreatedAt.Equal(created))
	require.Len(t, got.ACHMatrices, 1)
	assert.Equal(t, model.RatingInconsistent, got.ACHMatrices[0].Ratings.Get("e1", "h1"))
}

func TestBoltStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStore_ListOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, testProject("b", "second", base.Add(time.Hour))))
	require.NoError(t, s.Put(ctx, testProject("c", "first", base)))
	require.NoError(t, s.Put(ctx, testProject("a", "third", base.Add(2*time.Hour))))

	projects, err := s.List(ctx)
	require.NoError(t, err)

	var names []string
	for _, p := range projects {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

func TestBoltStore_ListEmpty(t *testing.T) {
	s := openTestStore(t)

	projects, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}

func TestBoltStore_DeleteArchives(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, testProject("p1", "v1", now)))
	require.NoError(t, s.Put(ctx, testProject("p1", "v2", now)))
	require.NoError(t, s.Delete(ctx, "p1"))

	_, err := s.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)

	versions, err := s.Versions(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v2", versions[0].Name, "newest first")
	assert.Equal(t, "v1", versions[1].Name)
}

func TestBoltStore_VersionsLimitKeepsNewest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, name := range []string{"v1", "v2", "v3", "v4"} {
		require.NoError(t, s.Put(ctx, testProject("p1", name, now)))
	}

	limited, err := s.Versions(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "v3", limited[0].Name)
	assert.Equal(t, "v2", limited[1].Name)

	all, err := s.Versions(ctx, "p1", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestBoltStore_DeleteMissing(t *testing.T) {
	s := openTestStore(t)

	err := s.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStore_VersionsDoNotLeakAcrossIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, testProject("p1", "one", now)))
	require.NoError(t, s.Put(ctx, testProject("p1", "one again", now)))
	require.NoError(t, s.Put(ctx, testProject("p10", "ten", now)))
	require.NoError(t, s.Put(ctx, testProject("p10", "ten again", now)))

	versions, err := s.Versions(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "one", versions[0].Name)
}

func TestBoltStore_VersionsWithSeparatorInID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, testProject("a", "a first", now)))
	require.NoError(t, s.Put(ctx, testProject("a", "a second", now)))
	require.NoError(t, s.Put(ctx, testProject("a:b", "ab first", now)))
	require.NoError(t, s.Put(ctx, testProject("a:b", "ab second", now)))
	require.NoError(t, s.Delete(ctx, "a:b"))

	versions, err := s.Versions(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "a first", versions[0].Name)

	versions, err = s.Versions(ctx, "a:b", 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "ab second", versions[0].Name)

	none, err := s.Versions(ctx, "never-stored", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBoltStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, testProject("p1", "persisted", time.Now().UTC())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Name)
}

func TestBoltStore_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "p1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Put(ctx, testProject("p1", "x", time.Now())), context.Canceled)
}
