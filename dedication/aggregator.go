package dedication

import (
	"time"

	"github.com/LilVoxy/lms_analytics/events"
)

// SessionAggregator восстанавливает сессии активности из упорядоченного потока
// событий одного курса и накапливает суммарное время вовлеченности.
//
// Поток обязан быть отсортирован по (userID, timestamp) по возрастанию.
// Агрегатор работает за один проход и хранит состояние только текущей сессии,
// поэтому объем событий не влияет на потребление памяти.
type SessionAggregator struct {
	gapLimitSeconds int64

	// Состояние текущей сессии
	hasCurrent   bool
	currentUser  int
	sessionStart time.Time
	previousTime time.Time

	totalSeconds  int64
	sessionCount  int
	skippedEvents int
}

// NewSessionAggregator создает новый агрегатор сессий
func NewSessionAggregator(gapLimitSeconds int64) *SessionAggregator {
	return &SessionAggregator{
		gapLimitSeconds: gapLimitSeconds,
	}
}

// Add обрабатывает очередное событие потока.
// События с источником cli и события с некорректным временем пропускаются.
func (a *SessionAggregator) Add(e events.RawEvent) {
	// События фоновых процессов не участвуют в расчете вовлеченности
	if e.Origin == events.OriginCLI {
		a.skippedEvents++
		return
	}

	if e.Timestamp.IsZero() || e.Timestamp.Unix() <= 0 {
		a.skippedEvents++
		return
	}

	// Смена пользователя (включая самое первое событие) закрывает
	// открытую сессию и начинает новую
	if !a.hasCurrent || e.UserID != a.currentUser {
		a.closeSession()
		a.openSession(e)
		return
	}

	gap := int64(e.Timestamp.Sub(a.previousTime).Seconds())

	// Разрыв больше лимита - сессия прервана, начинаем новую
	if gap > a.gapLimitSeconds {
		a.closeSession()
		a.openSession(e)
		return
	}

	// Сессия продолжается
	a.previousTime = e.Timestamp
}

// TotalSeconds закрывает последнюю открытую сессию и возвращает
// суммарное время вовлеченности в секундах
func (a *SessionAggregator) TotalSeconds() int64 {
	a.closeSession()
	return a.totalSeconds
}

// SessionCount возвращает количество закрытых сессий
func (a *SessionAggregator) SessionCount() int {
	return a.sessionCount
}

// SkippedEvents возвращает количество пропущенных событий
func (a *SessionAggregator) SkippedEvents() int {
	return a.skippedEvents
}

// Reset сбрасывает агрегатор для повторного использования
func (a *SessionAggregator) Reset() {
	a.hasCurrent = false
	a.totalSeconds = 0
	a.sessionCount = 0
	a.skippedEvents = 0
}

// closeSession добавляет длительность открытой сессии к общему итогу.
// Сессия из одного события дает ноль секунд: начало и последнее событие совпадают.
func (a *SessionAggregator) closeSession() {
	if !a.hasCurrent {
		return
	}

	a.totalSeconds += int64(a.previousTime.Sub(a.sessionStart).Seconds())
	a.sessionCount++
	a.hasCurrent = false
}

// openSession начинает новую сессию с переданного события
func (a *SessionAggregator) openSession(e events.RawEvent) {
	a.hasCurrent = true
	a.currentUser = e.UserID
	a.sessionStart = e.Timestamp
	a.previousTime = e.Timestamp
}
