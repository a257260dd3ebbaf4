package events

import (
	"context"
	"time"
)

// Действия, фиксируемые в журнале активности LMS
const (
	ActionLoggedIn  = "loggedin"
	ActionViewed    = "viewed"
	ActionCompleted = "completed"
)

// OriginCLI помечает события, созданные фоновыми процессами, а не пользователями
const OriginCLI = "cli"

// RawEvent представляет одно событие из журнала активности LMS
type RawEvent struct {
	UserID    int       // ID пользователя
	Action    string    // Тип действия (loggedin, viewed, completed)
	Timestamp time.Time // Время события
	CourseID  int       // ID курса (0, если событие не привязано к курсу)
	Origin    string    // Источник события (web, ws, cli)
}

// EventFilter описывает параметры выборки событий из журнала
type EventFilter struct {
	Action        string    // Тип действия ("" - любое)
	ExcludeOrigin string    // Источник, который нужно исключить ("" - не исключать)
	From          time.Time // Начало периода
	To            time.Time // Конец периода
	CourseID      int       // ID курса (0 - все курсы)
}

// EventService интерфейс для потокового чтения журнала активности.
// Реализация обязана отдавать события отсортированными по (user_id, timestamp)
// по возрастанию - на этом порядке построена агрегация сессий.
type EventService interface {
	// StreamEvents вызывает fn для каждого события, подходящего под фильтр.
	// Если fn возвращает ошибку, поток прерывается и ошибка возвращается наружу.
	StreamEvents(ctx context.Context, filter EventFilter, fn func(RawEvent) error) error
}
