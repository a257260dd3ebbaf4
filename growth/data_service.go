package growth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DataService сервис для получения замеров показателей из базы данных
type DataService struct {
	db *sql.DB
}

// NewDataService создает новый сервис для работы с замерами показателей
func NewDataService(db *sql.DB) *DataService {
	return &DataService{
		db: db,
	}
}

// GetDailyActiveUsers возвращает количество уникальных пользователей,
// заходивших в систему в указанный день
func (s *DataService) GetDailyActiveUsers(ctx context.Context, day time.Time) (float64, error) {
	var count float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM user_activity_log
		WHERE action = 'loggedin'
		AND DATE(created_at) = ?
	`, day.Format("2006-01-02")).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете дневных активных пользователей: %w", err)
	}

	return count, nil
}

// GetTotalActiveUsers возвращает общее количество активных пользователей системы
func (s *DataService) GetTotalActiveUsers(ctx context.Context) (float64, error) {
	var count float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM user_activity_log
		WHERE action = 'loggedin'
	`).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете активных пользователей: %w", err)
	}

	return count, nil
}

// GetSampleHistory возвращает историю замеров показателя за последние windowDays дней,
// отсортированную по времени наблюдения
func (s *DataService) GetSampleHistory(ctx context.Context, metric MetricKind, windowDays int) ([]GrowthSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT observed_at, value
		FROM resource_samples
		WHERE metric = ?
		AND observed_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
		ORDER BY observed_at
	`, string(metric), windowDays)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе истории замеров %s: %w", metric, err)
	}
	defer rows.Close()

	var samples []GrowthSample
	for rows.Next() {
		var sample GrowthSample
		if err := rows.Scan(&sample.Timestamp, &sample.Value); err != nil {
			return nil, fmt.Errorf("ошибка при чтении замера: %w", err)
		}
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по истории замеров: %w", err)
	}

	return samples, nil
}

// GetLatestSample возвращает самый свежий замер показателя.
// Возвращает nil, если замеров еще не было.
func (s *DataService) GetLatestSample(ctx context.Context, metric MetricKind) (*GrowthSample, error) {
	var sample GrowthSample
	err := s.db.QueryRowContext(ctx, `
		SELECT observed_at, value
		FROM resource_samples
		WHERE metric = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`, string(metric)).Scan(&sample.Timestamp, &sample.Value)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении последнего замера %s: %w", metric, err)
	}

	return &sample, nil
}
