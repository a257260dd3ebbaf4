package models

import (
	"database/sql"
	"fmt"
	"time"
)

// MySQLRunLogRepository реализация RunLogRepository для MySQL
type MySQLRunLogRepository struct {
	db *sql.DB
}

// NewMySQLRunLogRepository создает новый экземпляр MySQLRunLogRepository
func NewMySQLRunLogRepository(db *sql.DB) *MySQLRunLogRepository {
	return &MySQLRunLogRepository{
		db: db,
	}
}

// CreateRunLogTable создает таблицу журнала запусков, если она не существует
func (r *MySQLRunLogRepository) CreateRunLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS analytics_run_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		run_uuid CHAR(36) NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		days_tracked INT DEFAULT 0,
		courses_processed INT DEFAULT 0,
		projections_saved INT DEFAULT 0,
		records_reaped INT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT,
		INDEX idx_run_uuid (run_uuid)
	);
	`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы analytics_run_log: %w", err)
	}

	return nil
}

// CreateLogEntry создает новую запись о запуске
func (r *MySQLRunLogRepository) CreateLogEntry(runUUID string, startTime time.Time) (int, error) {
	query := `
	INSERT INTO analytics_run_log (run_uuid, start_time, status)
	VALUES (?, ?, 'in_progress')
	`

	result, err := r.db.Exec(query, runUUID, startTime)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании записи о запуске: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID созданной записи: %w", err)
	}

	return int(id), nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении
func (r *MySQLRunLogRepository) UpdateLogEntrySuccess(
	id int,
	endTime time.Time,
	daysTracked,
	coursesProcessed,
	projectionsSaved,
	recordsReaped int) error {

	// Рассчитываем время выполнения в секундах
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM analytics_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return fmt.Errorf("ошибка при получении времени начала запуска: %w", err)
	}

	executionTime := endTime.Sub(startTime).Seconds()

	query := `
	UPDATE analytics_run_log
	SET
		end_time = ?,
		status = 'success',
		days_tracked = ?,
		courses_processed = ?,
		projections_saved = ?,
		records_reaped = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(
		query,
		endTime,
		daysTracked,
		coursesProcessed,
		projectionsSaved,
		recordsReaped,
		executionTime,
		id,
	)

	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске: %w", err)
	}

	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении
func (r *MySQLRunLogRepository) UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error {
	// Рассчитываем время выполнения в секундах
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM analytics_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return fmt.Errorf("ошибка при получении времени начала запуска: %w", err)
	}

	executionTime := endTime.Sub(startTime).Seconds()

	query := `
	UPDATE analytics_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, errorMessage, executionTime, id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске: %w", err)
	}

	return nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске
func (r *MySQLRunLogRepository) GetLastSuccessfulRun() (*AnalyticsRunLog, error) {
	query := `
	SELECT
		id, run_uuid, start_time, end_time, status,
		days_tracked, courses_processed, projections_saved, records_reaped,
		IFNULL(error_message, ''), execution_time_seconds
	FROM analytics_run_log
	WHERE status = 'success'
	ORDER BY end_time DESC
	LIMIT 1
	`

	var log AnalyticsRunLog
	err := r.db.QueryRow(query).Scan(
		&log.ID, &log.RunUUID, &log.StartTime, &log.EndTime, &log.Status,
		&log.DaysTracked, &log.CoursesProcessed, &log.ProjectionsSaved, &log.RecordsReaped,
		&log.ErrorMessage, &log.ExecutionTimeSeconds,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Нет успешных запусков
		}
		return nil, fmt.Errorf("ошибка при получении информации о последнем успешном запуске: %w", err)
	}

	return &log, nil
}
