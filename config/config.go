package config

import (
	"time"
)

// MonitorConfig содержит конфигурацию для процесса мониторинга использования
type MonitorConfig struct {
	// Конфигурация для подключения к базе данных LMS
	DBConfig DatabaseConfig `json:"db_config"`

	// Интервал запуска аналитического процесса
	RunInterval time.Duration `json:"run_interval"`

	// Максимальный разрыв между событиями одной сессии (в секундах)
	SessionGapLimitSeconds int64 `json:"session_gap_limit_seconds"`

	// Вместимость таблицы рекордов дневной активности
	TopUsersCapacity int `json:"top_users_capacity"`

	// Срок хранения записей о рекордах (в днях)
	RetentionDays int `json:"retention_days"`

	// Окно анализа для расчета темпов роста (в днях)
	GrowthWindowDays int `json:"growth_window_days"`

	// Количество курсов в рейтинге по времени вовлеченности
	DedicationTopN int `json:"dedication_top_n"`

	// Пороговые значения для прогноза достижения лимитов
	Thresholds struct {
		MaxUsers     float64 `json:"max_users"`      // Лимит активных пользователей
		MaxDiskBytes float64 `json:"max_disk_bytes"` // Лимит занятого дискового пространства
	} `json:"thresholds"`

	// Включение/отключение детального логирования
	EnableDetailedLogging bool `json:"enable_detailed_logging"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// Значения конфигурации по умолчанию
var (
	DefaultDBConfig = DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "Vjnbkmlf40782",
		DBName:   "lms_analytics",
	}

	DefaultMonitorConfig = MonitorConfig{
		DBConfig:               DefaultDBConfig,
		RunInterval:            24 * time.Hour,
		SessionGapLimitSeconds: 3600,
		TopUsersCapacity:       10,
		RetentionDays:          180,
		GrowthWindowDays:       30,
		DedicationTopN:         10,
		EnableDetailedLogging:  true,
	}
)

// GetConfig возвращает конфигурацию мониторинга
func GetConfig() MonitorConfig {
	config := DefaultMonitorConfig

	// Настройка пороговых значений для прогнозов
	config.Thresholds.MaxUsers = 10000                      // 10 000 активных пользователей
	config.Thresholds.MaxDiskBytes = 500 * 1024 * 1024 * 1024 // 500 ГБ дискового пространства

	return config
}
