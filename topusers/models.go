package topusers

import (
	"errors"
	"time"
)

// Ошибки валидации входных данных трекера
var (
	// ErrInvalidDate возвращается при некорректной дате рекорда
	ErrInvalidDate = errors.New("некорректная дата записи рекорда")

	// ErrNegativeCount возвращается при отрицательном количестве пользователей
	ErrNegativeCount = errors.New("отрицательное количество пользователей")
)

// DailyUserRecord представляет один дневной рекорд активности:
// пиковое количество уникальных пользователей за сутки
type DailyUserRecord struct {
	ID        int       `json:"id"`         // ID записи
	Date      time.Time `json:"date"`       // Дата (с точностью до дня)
	UserCount int       `json:"user_count"` // Количество уникальных пользователей
}

// DailyActiveCount представляет количество уникальных пользователей за один день
type DailyActiveCount struct {
	Date  time.Time // Дата (начало суток)
	Users int       // Количество уникальных пользователей
}

// TrackerConfig содержит параметры трекера рекордов
type TrackerConfig struct {
	Capacity      int // Вместимость таблицы рекордов
	RetentionDays int // Срок хранения записей в днях
}

// DefaultConfig возвращает конфигурацию трекера по умолчанию
func DefaultConfig() TrackerConfig {
	return TrackerConfig{
		Capacity:      10,
		RetentionDays: 180,
	}
}

// RecordSet представляет набор записей рекордов в рамках одной транзакции.
// Все операции набора выполняются атомарно относительно параллельных вызовов.
type RecordSet interface {
	// Count возвращает текущее количество записей.
	// Чтение блокирующее: результат действителен до конца транзакции.
	Count() (int, error)

	// Insert добавляет новую запись без каких-либо проверок
	Insert(date time.Time, userCount int) error

	// MinRecord возвращает запись с минимальным количеством пользователей.
	// При равных значениях выбирается запись с самой старой датой.
	// Возвращает nil, если записей нет.
	MinRecord() (*DailyUserRecord, error)

	// UpdateRecord перезаписывает дату и количество пользователей записи
	UpdateRecord(id int, date time.Time, userCount int) error

	// DeleteOlderThan удаляет записи старше указанной даты
	// и возвращает удаленные записи
	DeleteOlderThan(cutoff time.Time) ([]DailyUserRecord, error)
}

// Repository интерфейс для работы с хранилищем рекордов
type Repository interface {
	// EnsureTableExists создает таблицу рекордов, если она не существует
	EnsureTableExists() error

	// Atomically выполняет fn в рамках одной транзакции.
	// При ошибке fn вся транзакция откатывается.
	Atomically(fn func(RecordSet) error) error

	// TopRecords возвращает записи, отсортированные по убыванию количества пользователей
	TopRecords(limit int) ([]DailyUserRecord, error)
}

// ArchiveRepository интерфейс для архивирования удаленных рекордов
type ArchiveRepository interface {
	// EnsureTableExists создает таблицу архива, если она не существует
	EnsureTableExists() error

	// SaveArchive сохраняет пакет удаленных записей в архив
	SaveArchive(records []DailyUserRecord, reapedAt time.Time) error
}
