package dedication

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/lms_analytics/events"
)

// MySQLDataService реализация DataService для MySQL.
// Потоковое чтение событий делегируется сервису журнала активности.
type MySQLDataService struct {
	db           *sql.DB
	eventService events.EventService
}

// NewMySQLDataService создает новый сервис данных для расчета вовлеченности
func NewMySQLDataService(db *sql.DB, eventService events.EventService) *MySQLDataService {
	return &MySQLDataService{
		db:           db,
		eventService: eventService,
	}
}

// ListCourseIDs возвращает ID курсов, по которым были события за период
func (s *MySQLDataService) ListCourseIDs(ctx context.Context, from, to time.Time) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT course_id
		FROM user_activity_log
		WHERE course_id > 0
		AND created_at >= ? AND created_at <= ?
		ORDER BY course_id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе списка курсов: %w", err)
	}
	defer rows.Close()

	var courseIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка при чтении ID курса: %w", err)
		}
		courseIDs = append(courseIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по списку курсов: %w", err)
	}

	return courseIDs, nil
}

// StreamCourseEvents отдает события курса за период без событий cli,
// отсортированные по (user_id, timestamp)
func (s *MySQLDataService) StreamCourseEvents(ctx context.Context, courseID int, from, to time.Time, fn func(events.RawEvent) error) error {
	filter := events.EventFilter{
		ExcludeOrigin: events.OriginCLI,
		From:          from,
		To:            to,
		CourseID:      courseID,
	}

	return s.eventService.StreamEvents(ctx, filter, fn)
}

// CountEnrolledStudents возвращает количество студентов, записанных на курс
func (s *MySQLDataService) CountEnrolledStudents(ctx context.Context, courseID int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM course_enrolments
		WHERE course_id = ?
	`, courseID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете студентов курса %d: %w", courseID, err)
	}

	return count, nil
}
