package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/lms_analytics/utils"
)

// MySQLEventService реализация EventService для MySQL
type MySQLEventService struct {
	db     *sql.DB
	logger *utils.MonitorLogger
}

// NewMySQLEventService создает новый сервис для чтения журнала активности
func NewMySQLEventService(db *sql.DB, logger *utils.MonitorLogger) *MySQLEventService {
	return &MySQLEventService{
		db:     db,
		logger: logger,
	}
}

// StreamEvents читает события курсором, не материализуя весь результат в памяти.
// Битые записи (некорректное время) пропускаются с записью в лог.
func (s *MySQLEventService) StreamEvents(ctx context.Context, filter EventFilter, fn func(RawEvent) error) error {
	query := `
	SELECT user_id, action, created_at, course_id, origin
	FROM user_activity_log
	WHERE created_at >= ? AND created_at <= ?`

	args := []interface{}{filter.From, filter.To}

	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}

	if filter.ExcludeOrigin != "" {
		query += " AND origin != ?"
		args = append(args, filter.ExcludeOrigin)
	}

	if filter.CourseID != 0 {
		query += " AND course_id = ?"
		args = append(args, filter.CourseID)
	}

	query += " ORDER BY user_id, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка при запросе журнала активности: %w", err)
	}
	defer rows.Close()

	var skipped int
	for rows.Next() {
		var event RawEvent
		if err := rows.Scan(&event.UserID, &event.Action, &event.Timestamp, &event.CourseID, &event.Origin); err != nil {
			// Битую запись пропускаем, обработка продолжается
			skipped++
			s.logger.Debug("Пропущена некорректная запись журнала активности: %v", err)
			continue
		}

		// Некорректное время события - тоже причина для пропуска
		if event.Timestamp.IsZero() || event.Timestamp.Unix() <= 0 {
			skipped++
			s.logger.Debug("Пропущено событие с некорректным временем: пользователь %d", event.UserID)
			continue
		}

		if err := fn(event); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("ошибка при итерации по журналу активности: %w", err)
	}

	if skipped > 0 {
		s.logger.Info("Пропущено некорректных записей журнала активности: %d", skipped)
	}

	return nil
}

// CountEventsInRange возвращает количество событий за период (для диагностики)
func (s *MySQLEventService) CountEventsInRange(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_activity_log
		WHERE created_at >= ? AND created_at <= ?
	`, from, to).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете событий: %w", err)
	}

	return count, nil
}
