package growth

import (
	"time"
)

// MetricKind определяет тип отслеживаемого ресурсного показателя
type MetricKind string

const (
	// MetricUsers - показатель-счетчик: дневные активные пользователи
	MetricUsers MetricKind = "users"

	// MetricDisk - показатель-объем: занятое дисковое пространство в байтах
	MetricDisk MetricKind = "disk"
)

// Сентинельные значения для количества дней до достижения порога.
// Отрицательные значения исключают совпадение с реальным количеством дней
// при любой сериализации.
const (
	// DaysAlreadyExceeded - текущее значение уже превысило порог
	DaysAlreadyExceeded = -1

	// DaysNeverAtCurrentRate - при текущем темпе роста порог не будет достигнут
	DaysNeverAtCurrentRate = -2
)

// GrowthSample представляет одно историческое наблюдение показателя
type GrowthSample struct {
	Timestamp time.Time // Время наблюдения
	Value     float64   // Значение показателя
}

// ThresholdProjection содержит результат прогноза достижения порога
type ThresholdProjection struct {
	Metric                    MetricKind // Показатель
	CurrentValue              float64    // Текущее значение показателя
	ThresholdValue            float64    // Пороговое значение
	GrowthRatePercentPerMonth float64    // Темп роста (% в месяц)
	DaysToThreshold           int        // Дней до порога или сентинел
	CalculationDate           time.Time  // Дата расчета
}

// Config конфигурация процессора прогнозов роста
type Config struct {
	// Окно анализа в днях
	WindowDays int

	// Темп роста по умолчанию (% в месяц), если истории недостаточно
	FallbackMonthlyRate float64

	// Срок хранения сохраненных прогнозов в днях
	ProjectionRetentionDays int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		WindowDays:              30,
		FallbackMonthlyRate:     5.0,
		ProjectionRetentionDays: 90,
	}
}

// ProjectionRepository интерфейс для работы с хранилищем прогнозов
type ProjectionRepository interface {
	// EnsureTableExists создает таблицу прогнозов, если она не существует
	EnsureTableExists() error

	// SaveProjections сохраняет пакет прогнозов в одной транзакции
	SaveProjections(projections []ThresholdProjection) error

	// DeleteOldProjections удаляет прогнозы, рассчитанные раньше указанной даты
	DeleteOldProjections(olderThan time.Time) error
}
