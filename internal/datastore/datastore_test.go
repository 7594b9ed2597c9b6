package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/plant"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", nil, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRecord(t *testing.T, name string, order int) *plant.Record {
	t.Helper()
	r, err := plant.New(name, "Monstera deliciosa", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	r.SortOrder = order
	return r
}

func TestPlantRepository_InsertGet(t *testing.T) {
	repo := setupTestStore(t).Plants()
	ctx := t.Context()

	rec := newRecord(t, "몬스테라", 0)
	rec.Note = "창가에 둘 것"
	rec.Image = []byte{0xff, 0xd8, 0xff}
	require.NoError(t, repo.Insert(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "몬스테라", got.Name)
	assert.Equal(t, "창가에 둘 것", got.Note)
	assert.Equal(t, rec.Image, got.Image)
	assert.Equal(t, 7, got.IntervalDays)
	assert.True(t, rec.LastWatered.Equal(got.LastWatered))
}

func TestPlantRepository_InsertRejectsInvalidInterval(t *testing.T) {
	repo := setupTestStore(t).Plants()

	rec := newRecord(t, "bad", 0)
	rec.IntervalDays = 0
	err := repo.Insert(t.Context(), rec)
	require.ErrorIs(t, err, plant.ErrInvalidInterval)

	n, err := repo.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPlantRepository_DuplicateIDFails(t *testing.T) {
	repo := setupTestStore(t).Plants()
	rec := newRecord(t, "a", 0)
	require.NoError(t, repo.Insert(t.Context(), rec))

	err := repo.Insert(t.Context(), rec)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
}

func TestPlantRepository_Update(t *testing.T) {
	repo := setupTestStore(t).Plants()
	ctx := t.Context()

	rec := newRecord(t, "스킨답서스", 0)
	require.NoError(t, repo.Insert(ctx, rec))

	rec.Name = "골든 포토스"
	rec.IntervalDays = 5
	rec.Note = ""
	require.NoError(t, repo.Update(ctx, rec))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "골든 포토스", got.Name)
	assert.Equal(t, 5, got.IntervalDays)

	missing := newRecord(t, "ghost", 0)
	err = repo.Update(ctx, missing)
	require.ErrorIs(t, err, ErrPlantNotFound)
}

func TestPlantRepository_Delete(t *testing.T) {
	repo := setupTestStore(t).Plants()
	ctx := t.Context()

	rec := newRecord(t, "율마", 0)
	require.NoError(t, repo.Insert(ctx, rec))
	require.NoError(t, repo.Delete(ctx, rec.ID))

	_, err := repo.Get(ctx, rec.ID)
	require.ErrorIs(t, err, ErrPlantNotFound)
	assert.True(t, errors.IsNotFound(err))

	err = repo.Delete(ctx, rec.ID)
	require.ErrorIs(t, err, ErrPlantNotFound)
}

func TestPlantRepository_ListAndReorder(t *testing.T) {
	repo := setupTestStore(t).Plants()
	ctx := t.Context()

	a := newRecord(t, "a", 0)
	b := newRecord(t, "b", 1)
	c := newRecord(t, "c", 2)
	for _, r := range []*plant.Record{a, b, c} {
		require.NoError(t, repo.Insert(ctx, r))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, names(list))

	require.NoError(t, repo.Reorder(ctx, []uuid.UUID{c.ID, a.ID}))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names(list))
	assert.Equal(t, []int{0, 1, 2}, orders(list))

	err = repo.Reorder(ctx, []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, ErrPlantNotFound)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names(list), "failed reorder must roll back")
}

func TestPlantRepository_NextSortOrder(t *testing.T) {
	repo := setupTestStore(t).Plants()
	ctx := t.Context()

	next, err := repo.NextSortOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	require.NoError(t, repo.Insert(ctx, newRecord(t, "a", 4)))
	next, err = repo.NextSortOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, next)
}

func TestReminderRepository_UpsertAndList(t *testing.T) {
	repo := setupTestStore(t).Reminders()
	ctx := t.Context()

	first := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &PendingReminder{Key: "watering-b", TriggerAt: second, Title: "t", Body: "b"}))
	require.NoError(t, repo.Save(ctx, &PendingReminder{Key: "watering-a", TriggerAt: first, Title: "t", Body: "a"}))
	require.NoError(t, repo.Save(ctx, &PendingReminder{Key: "watering-b", TriggerAt: first.Add(time.Hour), Title: "t", Body: "b2"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "watering-a", list[0].Key)
	assert.Equal(t, "b2", list[1].Body)

	got, err := repo.Get(ctx, "watering-b")
	require.NoError(t, err)
	assert.True(t, got.TriggerAt.Equal(first.Add(time.Hour)))

	require.NoError(t, repo.Delete(ctx, "watering-a"))
	require.NoError(t, repo.Delete(ctx, "watering-a"))
	_, err = repo.Get(ctx, "watering-a")
	require.ErrorIs(t, err, ErrReminderNotFound)

	require.NoError(t, repo.DeleteAll(ctx))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPreferenceRepository_Bool(t *testing.T) {
	repo := setupTestStore(t).Preferences()
	ctx := t.Context()

	_, ok, err := repo.GetBool(ctx, "notifications_enabled")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetBool(ctx, "notifications_enabled", false))
	v, ok, err := repo.GetBool(ctx, "notifications_enabled")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, v)

	require.NoError(t, repo.SetBool(ctx, "notifications_enabled", true))
	v, ok, err = repo.GetBool(ctx, "notifications_enabled")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v)
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "danbi.db")
	store, err := Open(path, nil, 0)
	require.NoError(t, err)

	rec := newRecord(t, "a", 0)
	require.NoError(t, store.Plants().Insert(t.Context(), rec))
	require.NoError(t, store.Close())

	store, err = Open(path, nil, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.Plants().Get(t.Context(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}

func names(list []*plant.Record) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Name
	}
	return out
}

func orders(list []*plant.Record) []int {
	out := make([]int, len(list))
	for i, r := range list {
		out[i] = r.SortOrder
	}
	return out
}
