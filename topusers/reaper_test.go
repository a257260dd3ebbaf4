package topusers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeArchiveRepository запоминает переданные в архив записи
type fakeArchiveRepository struct {
	archived [][]DailyUserRecord
	err      error
}

func (a *fakeArchiveRepository) EnsureTableExists() error { return nil }

func (a *fakeArchiveRepository) SaveArchive(records []DailyUserRecord, purgedAt time.Time) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, records)
	return nil
}

func TestReapOlderThan_RemovesStaleRecords(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	// Устаревшие записи удаляются независимо от места в топе
	require.NoError(t, tracker.InsertOrUpdate(day(0), 1000))
	require.NoError(t, tracker.InsertOrUpdate(day(1), 900))
	require.NoError(t, tracker.InsertOrUpdate(day(200), 5))
	require.NoError(t, tracker.InsertOrUpdate(day(201), 10))

	reaper := NewStaleRecordReaper(repo, nil, testLogger(), DefaultConfig())

	purged, err := reaper.ReapOlderThan(day(100))
	require.NoError(t, err)

	assert.Equal(t, 2, purged)
	assert.Len(t, repo.records, 2)
	for _, rec := range repo.records {
		assert.False(t, rec.Date.Before(day(100)))
	}
}

func TestReapOlderThan_BelowCapacityAfterPurge(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	for i := 0; i < 10; i++ {
		require.NoError(t, tracker.InsertOrUpdate(day(i), 100+i))
	}

	reaper := NewStaleRecordReaper(repo, nil, testLogger(), DefaultConfig())

	purged, err := reaper.ReapOlderThan(day(5))
	require.NoError(t, err)
	assert.Equal(t, 5, purged)

	// После очистки таблица ниже вместимости: вставка снова проходит безусловно,
	// даже со значением меньше прежнего минимума
	require.NoError(t, tracker.InsertOrUpdate(day(300), 1))
	assert.Len(t, repo.records, 6)
}

func TestReapOlderThan_ArchivesPurged(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	require.NoError(t, tracker.InsertOrUpdate(day(0), 55))
	require.NoError(t, tracker.InsertOrUpdate(day(300), 77))

	archive := &fakeArchiveRepository{}
	reaper := NewStaleRecordReaper(repo, archive, testLogger(), DefaultConfig())

	purged, err := reaper.ReapOlderThan(day(100))
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	require.Len(t, archive.archived, 1)
	require.Len(t, archive.archived[0], 1)
	assert.Equal(t, 55, archive.archived[0][0].UserCount)
}

func TestReapOlderThan_NothingToPurge(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	require.NoError(t, tracker.InsertOrUpdate(day(300), 50))

	archive := &fakeArchiveRepository{}
	reaper := NewStaleRecordReaper(repo, archive, testLogger(), DefaultConfig())

	purged, err := reaper.ReapOlderThan(day(100))
	require.NoError(t, err)
	assert.Equal(t, 0, purged)

	// Пустая очистка не создает архивных записей
	assert.Empty(t, archive.archived)
}
