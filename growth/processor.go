package growth

import (
	"context"
	"fmt"
	"time"

	"github.com/LilVoxy/lms_analytics/utils"
)

// GrowthProcessor рассчитывает темпы роста ресурсных показателей
// и прогнозирует сроки достижения настроенных порогов
type GrowthProcessor struct {
	dataService *DataService
	repository  ProjectionRepository
	logger      *utils.MonitorLogger
	config      Config

	// Пороговые значения показателей
	maxUsers     float64
	maxDiskBytes float64
}

// NewGrowthProcessor создает новый процессор прогнозов роста
func NewGrowthProcessor(
	dataService *DataService,
	repository ProjectionRepository,
	logger *utils.MonitorLogger,
	config Config,
	maxUsers, maxDiskBytes float64,
) *GrowthProcessor {
	return &GrowthProcessor{
		dataService:  dataService,
		repository:   repository,
		logger:       logger,
		config:       config,
		maxUsers:     maxUsers,
		maxDiskBytes: maxDiskBytes,
	}
}

// Process выполняет полный цикл расчета: темпы роста по обоим показателям,
// прогнозы достижения порогов и сохранение результатов.
// Возвращает количество сохраненных прогнозов.
func (p *GrowthProcessor) Process(ctx context.Context) (int, error) {
	startTime := time.Now()
	p.logger.Info("Запуск расчета прогнозов роста ресурсных показателей")

	// 1. Убеждаемся, что таблица прогнозов существует
	if err := p.repository.EnsureTableExists(); err != nil {
		return 0, fmt.Errorf("ошибка при проверке/создании таблицы прогнозов: %w", err)
	}

	var projections []ThresholdProjection

	// 2. Прогноз по активным пользователям
	usersProjection, err := p.projectUsers(ctx)
	if err != nil {
		// Ошибка по одному показателю не прерывает расчет остальных
		p.logger.Error("Не удалось рассчитать прогноз по пользователям: %v", err)
	} else {
		projections = append(projections, *usersProjection)
	}

	// 3. Прогноз по дисковому пространству
	diskProjection, err := p.projectDisk(ctx)
	if err != nil {
		p.logger.Error("Не удалось рассчитать прогноз по дисковому пространству: %v", err)
	} else {
		projections = append(projections, *diskProjection)
	}

	// 4. Сохраняем прогнозы
	if err := p.repository.SaveProjections(projections); err != nil {
		return 0, fmt.Errorf("ошибка при сохранении прогнозов: %w", err)
	}

	// 5. Удаляем устаревшие прогнозы
	deleteOlderThan := time.Now().AddDate(0, 0, -p.config.ProjectionRetentionDays)
	if err := p.repository.DeleteOldProjections(deleteOlderThan); err != nil {
		// Некритичная ошибка, просто логируем
		p.logger.Info("Не удалось удалить устаревшие прогнозы: %v", err)
	}

	p.logger.Info("Расчет прогнозов роста завершен за %v. Сохранено прогнозов: %d",
		time.Since(startTime), len(projections))

	return len(projections), nil
}

// projectUsers строит прогноз по показателю активных пользователей.
// Темп роста оценивается по двум однодневным замерам на границах окна.
func (p *GrowthProcessor) projectUsers(ctx context.Context) (*ThresholdProjection, error) {
	windowStart := time.Now().AddDate(0, 0, -p.config.WindowDays)

	first, err := p.dataService.GetDailyActiveUsers(ctx, windowStart)
	if err != nil {
		return nil, err
	}

	last, err := p.dataService.GetDailyActiveUsers(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	rate := CalculateCountGrowthRate(first, last)
	p.logger.Debug("Темп роста пользователей: %.2f%% в месяц (замеры %v -> %v)", rate, first, last)

	current, err := p.dataService.GetTotalActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	days := ProjectDaysToThreshold(current, p.maxUsers, rate)

	return &ThresholdProjection{
		Metric:                    MetricUsers,
		CurrentValue:              current,
		ThresholdValue:            p.maxUsers,
		GrowthRatePercentPerMonth: rate,
		DaysToThreshold:           days,
		CalculationDate:           time.Now(),
	}, nil
}

// projectDisk строит прогноз по показателю занятого дискового пространства
// на основе истории замеров
func (p *GrowthProcessor) projectDisk(ctx context.Context) (*ThresholdProjection, error) {
	samples, err := p.dataService.GetSampleHistory(ctx, MetricDisk, p.config.WindowDays)
	if err != nil {
		return nil, err
	}

	rate := CalculateSizeGrowthRate(samples, p.config.FallbackMonthlyRate)
	p.logger.Debug("Темп роста дискового пространства: %.2f%% в месяц (%d замеров)", rate, len(samples))

	latest, err := p.dataService.GetLatestSample(ctx, MetricDisk)
	if err != nil {
		return nil, err
	}

	var current float64
	if latest != nil {
		current = latest.Value
	}

	days := ProjectDaysToThreshold(current, p.maxDiskBytes, rate)

	return &ThresholdProjection{
		Metric:                    MetricDisk,
		CurrentValue:              current,
		ThresholdValue:            p.maxDiskBytes,
		GrowthRatePercentPerMonth: rate,
		DaysToThreshold:           days,
		CalculationDate:           time.Now(),
	}, nil
}
