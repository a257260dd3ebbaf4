package topusers

import (
	"context"
	"sort"
	"time"

	"github.com/LilVoxy/lms_analytics/events"
	"github.com/LilVoxy/lms_analytics/utils"
)

// TopUsersTracker поддерживает таблицу исторических рекордов дневной активности.
// Таблица никогда не превышает заданную вместимость: при заполнении новое
// значение вытесняет текущий минимум, если оно не меньше его.
type TopUsersTracker struct {
	repo   Repository
	logger *utils.MonitorLogger
	config TrackerConfig
}

// NewTopUsersTracker создает новый трекер рекордов дневной активности
func NewTopUsersTracker(repo Repository, logger *utils.MonitorLogger, config TrackerConfig) *TopUsersTracker {
	return &TopUsersTracker{
		repo:   repo,
		logger: logger,
		config: config,
	}
}

// InsertOrUpdate фиксирует дневное количество пользователей в таблице рекордов.
// Пока таблица не заполнена, запись вставляется безусловно (без проверки
// уникальности даты). При заполненной таблице запись с минимальным количеством
// пользователей перезаписывается на месте, если новое значение не меньше минимума;
// иначе вызов ничего не меняет.
//
// Чтение минимума и последующая запись выполняются в одной транзакции:
// два параллельных вызова не могут вытеснить разные минимумы по устаревшим данным.
func (t *TopUsersTracker) InsertOrUpdate(date time.Time, userCount int) error {
	// Некорректный вход отклоняем до любых изменений
	if date.IsZero() || date.Unix() <= 0 {
		return ErrInvalidDate
	}
	if userCount < 0 {
		return ErrNegativeCount
	}

	return t.repo.Atomically(func(set RecordSet) error {
		count, err := set.Count()
		if err != nil {
			return err
		}

		// Таблица не заполнена - вставляем без сравнений
		if count < t.config.Capacity {
			return set.Insert(date, userCount)
		}

		min, err := set.MinRecord()
		if err != nil {
			return err
		}
		if min == nil {
			return set.Insert(date, userCount)
		}

		// Новое значение не дотягивает до минимума - рекорд не обновляется
		if userCount < min.UserCount {
			return nil
		}

		return set.UpdateRecord(min.ID, date, userCount)
	})
}

// RecordDailyPeaks фиксирует в таблице рекордов все переданные дневные значения.
// Некорректные значения пропускаются с записью в лог, обработка продолжается.
// Возвращает количество успешно обработанных дней.
func (t *TopUsersTracker) RecordDailyPeaks(counts []DailyActiveCount) int {
	processed := 0
	for _, dc := range counts {
		if err := t.InsertOrUpdate(dc.Date, dc.Users); err != nil {
			t.logger.Error("Не удалось зафиксировать рекорд за %s: %v",
				dc.Date.Format("2006-01-02"), err)
			continue
		}
		processed++
	}
	return processed
}

// TopRecords возвращает текущие рекорды по убыванию количества пользователей
func (t *TopUsersTracker) TopRecords() ([]DailyUserRecord, error) {
	return t.repo.TopRecords(t.config.Capacity)
}

// ComputeDailyActiveUsers считает количество уникальных пользователей по дням
// на основе потока событий входа. Разбиение по дням выполняется здесь,
// а не в запросе - сервису событий достаточно фильтра по периоду.
func ComputeDailyActiveUsers(ctx context.Context, service events.EventService, from, to time.Time) ([]DailyActiveCount, error) {
	// Для каждого дня накапливаем множество пользователей
	usersByDay := make(map[string]map[int]bool)

	filter := events.EventFilter{
		Action: events.ActionLoggedIn,
		From:   from,
		To:     to,
	}

	err := service.StreamEvents(ctx, filter, func(e events.RawEvent) error {
		// Приводим к UTC: иначе события одного календарного дня,
		// пришедшие с разными часовыми поясами, разойдутся по двум корзинам
		day := e.Timestamp.In(time.UTC).Format("2006-01-02")
		if _, ok := usersByDay[day]; !ok {
			usersByDay[day] = make(map[int]bool)
		}
		usersByDay[day][e.UserID] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	counts := make([]DailyActiveCount, 0, len(usersByDay))
	for day, users := range usersByDay {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		counts = append(counts, DailyActiveCount{
			Date:  date,
			Users: len(users),
		})
	}

	// Сортируем по дате для стабильного порядка обработки
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Date.Before(counts[j].Date)
	})

	return counts, nil
}
