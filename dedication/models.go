package dedication

import (
	"context"
	"fmt"
	"time"

	"github.com/LilVoxy/lms_analytics/events"
)

// Session представляет одну восстановленную сессию активности пользователя.
// Сессии - производная величина одного расчета, они нигде не сохраняются.
type Session struct {
	UserID    int       // ID пользователя
	StartTime time.Time // Время первого события сессии
	EndTime   time.Time // Время последнего события сессии
}

// DurationSeconds возвращает длительность сессии в секундах.
// Сессия из одного события дает ноль: считается время между событиями,
// а не предполагаемое время на каждое событие.
func (s Session) DurationSeconds() int64 {
	return int64(s.EndTime.Sub(s.StartTime).Seconds())
}

// CourseDedication содержит итоговые показатели вовлеченности по курсу
type CourseDedication struct {
	CourseID               int     `json:"course_id"`                // ID курса
	TotalDedicationSeconds int64   `json:"total_dedication_seconds"` // Суммарное время вовлеченности
	FormattedDuration      string  `json:"formatted_duration"`       // Читаемое представление времени
	EnrolledStudents       int     `json:"enrolled_students"`        // Количество записанных студентов
	AvgDedicationSeconds   int64   `json:"avg_dedication_seconds"`   // Среднее время на студента
	DedicationPercent      float64 `json:"dedication_percent"`       // Доля от общего времени по платформе
	Rank                   int     `json:"rank"`                     // Место в рейтинге
}

// Config конфигурация расчета времени вовлеченности
type Config struct {
	// Максимальный разрыв между событиями одной сессии (в секундах)
	SessionGapLimitSeconds int64

	// Количество курсов в итоговом рейтинге
	TopN int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		SessionGapLimitSeconds: 3600,
		TopN:                   10,
	}
}

// DataService интерфейс для получения данных о курсах и событиях
type DataService interface {
	// ListCourseIDs возвращает ID курсов, по которым были события за период
	ListCourseIDs(ctx context.Context, from, to time.Time) ([]int, error)

	// StreamCourseEvents отдает события курса за период, отсортированные
	// по (user_id, timestamp), исключая события с источником cli
	StreamCourseEvents(ctx context.Context, courseID int, from, to time.Time, fn func(events.RawEvent) error) error

	// CountEnrolledStudents возвращает количество студентов, записанных на курс
	CountEnrolledStudents(ctx context.Context, courseID int) (int, error)
}

// FormatDuration возвращает читаемое представление длительности в секундах
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours == 0 {
		return fmt.Sprintf("%d мин", minutes)
	}

	return fmt.Sprintf("%d ч %d мин", hours, minutes)
}
