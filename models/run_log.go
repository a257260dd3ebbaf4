package models

import (
	"time"
)

// AnalyticsRunLog представляет запись о запуске аналитического процесса
type AnalyticsRunLog struct {
	ID                   int       `json:"id"`
	RunUUID              string    `json:"run_uuid"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	DaysTracked          int       `json:"days_tracked"`
	CoursesProcessed     int       `json:"courses_processed"`
	ProjectionsSaved     int       `json:"projections_saved"`
	RecordsReaped        int       `json:"records_reaped"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunLogRepository представляет репозиторий для работы с журналом запусков
type RunLogRepository interface {
	// CreateRunLogTable создает таблицу журнала запусков, если она не существует
	CreateRunLogTable() error

	// CreateLogEntry создает новую запись о запуске и возвращает ее ID
	CreateLogEntry(runUUID string, startTime time.Time) (int, error)

	// UpdateLogEntrySuccess обновляет запись при успешном завершении
	UpdateLogEntrySuccess(
		id int,
		endTime time.Time,
		daysTracked,
		coursesProcessed,
		projectionsSaved,
		recordsReaped int) error

	// UpdateLogEntryFailure обновляет запись при неудачном завершении
	UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном запуске
	GetLastSuccessfulRun() (*AnalyticsRunLog, error)
}
