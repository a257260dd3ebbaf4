package topusers

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/LilVoxy/lms_analytics/events"
	"github.com/LilVoxy/lms_analytics/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *utils.MonitorLogger {
	return utils.NewMonitorLoggerWithWriter(io.Discard, false)
}

// memoryRepository реализация Repository в памяти для тестов
type memoryRepository struct {
	mu      sync.Mutex
	records []DailyUserRecord
	nextID  int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1}
}

func (r *memoryRepository) EnsureTableExists() error { return nil }

func (r *memoryRepository) Atomically(fn func(RecordSet) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Снимок для отката при ошибке
	snapshot := make([]DailyUserRecord, len(r.records))
	copy(snapshot, r.records)
	savedID := r.nextID

	if err := fn(&memoryRecordSet{repo: r}); err != nil {
		r.records = snapshot
		r.nextID = savedID
		return err
	}
	return nil
}

func (r *memoryRepository) TopRecords(limit int) ([]DailyUserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]DailyUserRecord, len(r.records))
	copy(result, r.records)
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserCount > result[j].UserCount
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type memoryRecordSet struct {
	repo *memoryRepository
}

func (s *memoryRecordSet) Count() (int, error) {
	return len(s.repo.records), nil
}

func (s *memoryRecordSet) Insert(date time.Time, userCount int) error {
	s.repo.records = append(s.repo.records, DailyUserRecord{
		ID:        s.repo.nextID,
		Date:      date,
		UserCount: userCount,
	})
	s.repo.nextID++
	return nil
}

func (s *memoryRecordSet) MinRecord() (*DailyUserRecord, error) {
	if len(s.repo.records) == 0 {
		return nil, nil
	}

	min := s.repo.records[0]
	for _, rec := range s.repo.records[1:] {
		if rec.UserCount < min.UserCount ||
			(rec.UserCount == min.UserCount && rec.Date.Before(min.Date)) {
			min = rec
		}
	}
	return &min, nil
}

func (s *memoryRecordSet) UpdateRecord(id int, date time.Time, userCount int) error {
	for i := range s.repo.records {
		if s.repo.records[i].ID == id {
			s.repo.records[i].Date = date
			s.repo.records[i].UserCount = userCount
			return nil
		}
	}
	return nil
}

func (s *memoryRecordSet) DeleteOlderThan(cutoff time.Time) ([]DailyUserRecord, error) {
	var kept, purged []DailyUserRecord
	for _, rec := range s.repo.records {
		if rec.Date.Before(cutoff) {
			purged = append(purged, rec)
		} else {
			kept = append(kept, rec)
		}
	}
	s.repo.records = kept
	return purged, nil
}

// fakeEventService отдает заранее заданные события, фильтруя по действию
type fakeEventService struct {
	events []events.RawEvent
}

func (s *fakeEventService) StreamEvents(ctx context.Context, filter events.EventFilter, fn func(events.RawEvent) error) error {
	for _, e := range s.events {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.ExcludeOrigin != "" && e.Origin == filter.ExcludeOrigin {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func day(offset int) time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func newTestTracker(repo Repository) *TopUsersTracker {
	return NewTopUsersTracker(repo, testLogger(), DefaultConfig())
}

func TestInsertOrUpdate_UnconditionalUnderCapacity(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	// Пока таблица не заполнена, вставка проходит при любом значении, даже нулевом
	require.NoError(t, tracker.InsertOrUpdate(day(0), 100))
	require.NoError(t, tracker.InsertOrUpdate(day(1), 0))
	require.NoError(t, tracker.InsertOrUpdate(day(2), 5))

	assert.Len(t, repo.records, 3)
}

func TestInsertOrUpdate_DuplicateDatesAllowed(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	// Проверки уникальности даты нет: две записи за один день сосуществуют
	require.NoError(t, tracker.InsertOrUpdate(day(0), 10))
	require.NoError(t, tracker.InsertOrUpdate(day(0), 20))

	assert.Len(t, repo.records, 2)
}

func TestInsertOrUpdate_CapacityInvariant(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	// При любой последовательности вставок таблица не превышает вместимость
	for i := 0; i < 25; i++ {
		require.NoError(t, tracker.InsertOrUpdate(day(i), i*7%13))
		assert.LessOrEqual(t, len(repo.records), 10)
	}
}

func TestInsertOrUpdate_ConcurrentInsertsRespectCapacity(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	// Параллельные вставки (плановый запуск + запуск по требованию):
	// проверка вместимости и запись выполняются в одной транзакции,
	// поэтому две вставки не могут одновременно увидеть незаполненную таблицу
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				n := g*10 + i
				assert.NoError(t, tracker.InsertOrUpdate(day(n), 50+n))
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, repo.records, 10)
}

func TestInsertOrUpdate_ReplacesMinimum(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	for i := 0; i < 10; i++ {
		require.NoError(t, tracker.InsertOrUpdate(day(i), (i+1)*10))
	}

	// Минимум сейчас 10; значение 55 должно вытеснить именно его
	require.NoError(t, tracker.InsertOrUpdate(day(20), 55))

	assert.Len(t, repo.records, 10)

	min, err := (&memoryRecordSet{repo: repo}).MinRecord()
	require.NoError(t, err)
	assert.Equal(t, 20, min.UserCount)

	// После замены новый минимум не меньше старого
	assert.GreaterOrEqual(t, min.UserCount, 10)
}

func TestInsertOrUpdate_EqualToMinimumReplaces(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	for i := 0; i < 10; i++ {
		require.NoError(t, tracker.InsertOrUpdate(day(i), 50+i))
	}

	// Значение, равное минимуму, тоже перезаписывает минимальную запись
	require.NoError(t, tracker.InsertOrUpdate(day(30), 50))

	assert.Len(t, repo.records, 10)

	var found bool
	for _, rec := range repo.records {
		if rec.Date.Equal(day(30)) {
			found = true
			assert.Equal(t, 50, rec.UserCount)
		}
	}
	assert.True(t, found, "запись с новой датой должна заменить минимум")
}

func TestInsertOrUpdate_BelowMinimumIsNoOp(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	for i := 0; i < 10; i++ {
		require.NoError(t, tracker.InsertOrUpdate(day(i), 100+i))
	}

	before := make([]DailyUserRecord, len(repo.records))
	copy(before, repo.records)

	// Значение меньше минимума не меняет состояние
	require.NoError(t, tracker.InsertOrUpdate(day(40), 99))

	assert.Equal(t, before, repo.records)
}

func TestInsertOrUpdate_MinimumTieBreakOldestDate(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	// Две записи с одинаковым минимальным значением, но разными датами
	require.NoError(t, tracker.InsertOrUpdate(day(5), 10))
	require.NoError(t, tracker.InsertOrUpdate(day(1), 10))
	for i := 0; i < 8; i++ {
		require.NoError(t, tracker.InsertOrUpdate(day(10+i), 100))
	}

	require.NoError(t, tracker.InsertOrUpdate(day(50), 10))

	// Вытеснена должна быть запись с самой старой датой
	for _, rec := range repo.records {
		assert.False(t, rec.Date.Equal(day(1)), "самая старая запись минимума должна быть вытеснена")
	}
}

func TestInsertOrUpdate_InvalidDate(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	err := tracker.InsertOrUpdate(time.Time{}, 100)
	assert.ErrorIs(t, err, ErrInvalidDate)

	// Некорректный вход не оставляет следов в хранилище
	assert.Empty(t, repo.records)
}

func TestInsertOrUpdate_NegativeCount(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	err := tracker.InsertOrUpdate(day(0), -1)
	assert.ErrorIs(t, err, ErrNegativeCount)
	assert.Empty(t, repo.records)
}

func TestRecordDailyPeaks_SkipsInvalid(t *testing.T) {
	repo := newMemoryRepository()
	tracker := newTestTracker(repo)

	counts := []DailyActiveCount{
		{Date: day(0), Users: 10},
		{Date: time.Time{}, Users: 20}, // будет пропущен
		{Date: day(1), Users: 30},
	}

	processed := tracker.RecordDailyPeaks(counts)

	assert.Equal(t, 2, processed)
	assert.Len(t, repo.records, 2)
}

func TestComputeDailyActiveUsers(t *testing.T) {
	service := &fakeEventService{
		events: []events.RawEvent{
			{UserID: 1, Action: events.ActionLoggedIn, Timestamp: day(0).Add(9 * time.Hour)},
			{UserID: 1, Action: events.ActionLoggedIn, Timestamp: day(0).Add(15 * time.Hour)},
			{UserID: 2, Action: events.ActionLoggedIn, Timestamp: day(0).Add(10 * time.Hour)},
			{UserID: 3, Action: events.ActionLoggedIn, Timestamp: day(1).Add(8 * time.Hour)},
			// Просмотры не считаются входами
			{UserID: 4, Action: events.ActionViewed, Timestamp: day(1).Add(9 * time.Hour)},
		},
	}

	counts, err := ComputeDailyActiveUsers(context.Background(), service, day(0), day(2))
	require.NoError(t, err)

	require.Len(t, counts, 2)

	// Повторные входы одного пользователя за день не увеличивают счетчик
	assert.Equal(t, day(0), counts[0].Date)
	assert.Equal(t, 2, counts[0].Users)
	assert.Equal(t, day(1), counts[1].Date)
	assert.Equal(t, 1, counts[1].Users)
}

func TestComputeDailyActiveUsers_MixedLocations(t *testing.T) {
	// Один и тот же момент времени в разных часовых поясах
	utcTime := day(0).Add(23 * time.Hour)
	mskTime := utcTime.In(time.FixedZone("MSK", 3*3600)) // уже следующий день по местному времени

	service := &fakeEventService{
		events: []events.RawEvent{
			{UserID: 1, Action: events.ActionLoggedIn, Timestamp: utcTime},
			{UserID: 2, Action: events.ActionLoggedIn, Timestamp: mskTime},
		},
	}

	counts, err := ComputeDailyActiveUsers(context.Background(), service, day(0), day(2))
	require.NoError(t, err)

	// Часовой пояс события не влияет на корзину: оба входа в одном дне по UTC
	require.Len(t, counts, 1)
	assert.Equal(t, day(0), counts[0].Date)
	assert.Equal(t, 2, counts[0].Users)
}
