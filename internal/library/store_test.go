package library_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ludex/internal/library"
	"ludex/internal/scanner"
)

func openStore(t *testing.T) *library.Store {
	t.Helper()
	store, err := library.Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(title string) *library.GameRecord {
	return &library.GameRecord{
		ID:          uuid.NewString(),
		Source:      scanner.SourceSteam,
		Title:       title,
		InstallPath: "/games/" + title,
		ExePath:     "/games/" + title + "/game.exe",
		AppID:       "400",
		Provider:    "rawg",
		ProviderID:  "42",
		Confidence:  0.85,
		Summary:     "A test chamber puzzler.",
		Genres:      []string{"Puzzle"},
		Screenshots: []string{"https://cdn.example/s1.jpg"},
		Status:      scanner.StatusReady,
	}
}

func TestUpsertAndGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	record := sampleRecord("Portal")
	require.NoError(t, store.Upsert(ctx, record))

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Title, got.Title)
	assert.Equal(t, record.Genres, got.Genres)
	assert.Equal(t, record.Screenshots, got.Screenshots)
	assert.Equal(t, scanner.StatusReady, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUpsertConvergesOnInstallPath(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := sampleRecord("Portal")
	require.NoError(t, store.Upsert(ctx, first))

	// A re-scan produces a fresh uuid but the same install location.
	second := sampleRecord("Portal")
	second.Confidence = 0.95
	require.NoError(t, store.Upsert(ctx, second))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, 0.95, records[0].Confidence)
}

func TestGetUnknownIDReturnsNil(t *testing.T) {
	store := openStore(t)

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListOrdersByTitle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, title := range []string{"Zelda", "axiom Verge", "Celeste"} {
		record := sampleRecord(title)
		require.NoError(t, store.Upsert(ctx, record))
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "axiom Verge", records[0].Title)
	assert.Equal(t, "Celeste", records[1].Title)
	assert.Equal(t, "Zelda", records[2].Title)
}

func TestUnresolvedExcludesReady(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	ready := sampleRecord("Portal")
	require.NoError(t, store.Upsert(ctx, ready))

	ambiguous := sampleRecord("Mystery Game")
	ambiguous.Status = scanner.StatusAmbiguous
	require.NoError(t, store.Upsert(ctx, ambiguous))

	records, err := store.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Mystery Game", records[0].Title)
}

func TestDeleteRemovesRecord(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	record := sampleRecord("Portal")
	require.NoError(t, store.Upsert(ctx, record))
	require.NoError(t, store.Delete(ctx, record.ID))

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOpenRefusesSecondProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")

	first, err := library.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })

	_, err = library.Open(path)
	require.Error(t, err)
}
