package growth

import (
	"database/sql"
	"fmt"
	"time"
)

// MySQLProjectionRepository реализация ProjectionRepository для MySQL
type MySQLProjectionRepository struct {
	db *sql.DB
}

// NewMySQLProjectionRepository создает новый репозиторий прогнозов
func NewMySQLProjectionRepository(db *sql.DB) *MySQLProjectionRepository {
	return &MySQLProjectionRepository{
		db: db,
	}
}

// EnsureTableExists создает таблицу прогнозов, если она не существует
func (r *MySQLProjectionRepository) EnsureTableExists() error {
	query := `
	CREATE TABLE IF NOT EXISTS threshold_projections (
		id INT AUTO_INCREMENT PRIMARY KEY,
		metric VARCHAR(32) NOT NULL,
		current_value DOUBLE NOT NULL,
		threshold_value DOUBLE NOT NULL,
		growth_rate_percent DOUBLE NOT NULL,
		days_to_threshold INT NOT NULL,
		calculation_date TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_metric_date (metric, calculation_date)
	);`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы threshold_projections: %w", err)
	}

	return nil
}

// SaveProjections сохраняет пакет прогнозов в одной транзакции
func (r *MySQLProjectionRepository) SaveProjections(projections []ThresholdProjection) error {
	if len(projections) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO threshold_projections
			(metric, current_value, threshold_value, growth_rate_percent, days_to_threshold, calculation_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось подготовить запрос: %w", err)
	}
	defer stmt.Close()

	for _, p := range projections {
		_, err := stmt.Exec(
			string(p.Metric),
			p.CurrentValue,
			p.ThresholdValue,
			p.GrowthRatePercentPerMonth,
			p.DaysToThreshold,
			p.CalculationDate,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("не удалось сохранить прогноз %s: %w", p.Metric, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}

	return nil
}

// DeleteOldProjections удаляет устаревшие прогнозы
func (r *MySQLProjectionRepository) DeleteOldProjections(olderThan time.Time) error {
	_, err := r.db.Exec(`
		DELETE FROM threshold_projections
		WHERE created_at < ?
	`, olderThan)
	if err != nil {
		return fmt.Errorf("ошибка при удалении устаревших прогнозов: %w", err)
	}

	return nil
}
