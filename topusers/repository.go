package topusers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"
)

// MySQLTopUsersRepository реализация Repository для MySQL
type MySQLTopUsersRepository struct {
	db *sql.DB
}

// NewMySQLTopUsersRepository создает новый репозиторий таблицы рекордов
func NewMySQLTopUsersRepository(db *sql.DB) *MySQLTopUsersRepository {
	return &MySQLTopUsersRepository{
		db: db,
	}
}

// EnsureTableExists создает таблицу рекордов, если она не существует
func (r *MySQLTopUsersRepository) EnsureTableExists() error {
	query := `
	CREATE TABLE IF NOT EXISTS top_daily_users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		record_date DATE NOT NULL,
		user_count INT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_user_count (user_count),
		INDEX idx_record_date (record_date)
	);`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы top_daily_users: %w", err)
	}

	return nil
}

// Atomically выполняет fn в одной транзакции с откатом при ошибке
func (r *MySQLTopUsersRepository) Atomically(fn func(RecordSet) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	if err := fn(&txRecordSet{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}

	return nil
}

// TopRecords возвращает записи по убыванию количества пользователей
func (r *MySQLTopUsersRepository) TopRecords(limit int) ([]DailyUserRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, record_date, user_count
		FROM top_daily_users
		ORDER BY user_count DESC, record_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе таблицы рекордов: %w", err)
	}
	defer rows.Close()

	var records []DailyUserRecord
	for rows.Next() {
		var rec DailyUserRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.UserCount); err != nil {
			return nil, fmt.Errorf("ошибка при чтении записи рекорда: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по таблице рекордов: %w", err)
	}

	return records, nil
}

// txRecordSet реализация RecordSet поверх открытой транзакции
type txRecordSet struct {
	tx *sql.Tx
}

// Count возвращает текущее количество записей.
// FOR UPDATE: проверка вместимости и последующая запись должны видеть
// одно и то же состояние таблицы. Обычный COUNT под REPEATABLE READ
// читает снимок без блокировок, и два параллельных вызова прошли бы
// по ветке безусловной вставки одновременно.
func (s *txRecordSet) Count() (int, error) {
	var count int
	err := s.tx.QueryRow(`SELECT COUNT(*) FROM top_daily_users FOR UPDATE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете записей рекордов: %w", err)
	}
	return count, nil
}

// Insert добавляет новую запись
func (s *txRecordSet) Insert(date time.Time, userCount int) error {
	_, err := s.tx.Exec(`
		INSERT INTO top_daily_users (record_date, user_count)
		VALUES (?, ?)
	`, date.Format("2006-01-02"), userCount)
	if err != nil {
		return fmt.Errorf("ошибка при вставке записи рекорда: %w", err)
	}
	return nil
}

// MinRecord возвращает запись с минимальным количеством пользователей.
// FOR UPDATE блокирует строку до конца транзакции, чтобы два параллельных
// вызова не вытеснили разные минимумы по одному и тому же состоянию.
func (s *txRecordSet) MinRecord() (*DailyUserRecord, error) {
	var rec DailyUserRecord
	err := s.tx.QueryRow(`
		SELECT id, record_date, user_count
		FROM top_daily_users
		ORDER BY user_count ASC, record_date ASC
		LIMIT 1
		FOR UPDATE
	`).Scan(&rec.ID, &rec.Date, &rec.UserCount)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске минимального рекорда: %w", err)
	}

	return &rec, nil
}

// UpdateRecord перезаписывает дату и количество пользователей записи
func (s *txRecordSet) UpdateRecord(id int, date time.Time, userCount int) error {
	_, err := s.tx.Exec(`
		UPDATE top_daily_users
		SET record_date = ?, user_count = ?
		WHERE id = ?
	`, date.Format("2006-01-02"), userCount, id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи рекорда: %w", err)
	}
	return nil
}

// DeleteOlderThan удаляет записи старше указанной даты и возвращает их
func (s *txRecordSet) DeleteOlderThan(cutoff time.Time) ([]DailyUserRecord, error) {
	rows, err := s.tx.Query(`
		SELECT id, record_date, user_count
		FROM top_daily_users
		WHERE record_date < ?
		FOR UPDATE
	`, cutoff.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("ошибка при выборке устаревших рекордов: %w", err)
	}
	defer rows.Close()

	var purged []DailyUserRecord
	for rows.Next() {
		var rec DailyUserRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.UserCount); err != nil {
			return nil, fmt.Errorf("ошибка при чтении устаревшего рекорда: %w", err)
		}
		purged = append(purged, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по устаревшим рекордам: %w", err)
	}

	if len(purged) == 0 {
		return nil, nil
	}

	if _, err := s.tx.Exec(`
		DELETE FROM top_daily_users
		WHERE record_date < ?
	`, cutoff.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("ошибка при удалении устаревших рекордов: %w", err)
	}

	return purged, nil
}

// MySQLArchiveRepository реализация ArchiveRepository для MySQL.
// Пакет удаленных записей сериализуется в JSON и хранится сжатым snappy.
type MySQLArchiveRepository struct {
	db *sql.DB
}

// NewMySQLArchiveRepository создает новый репозиторий архива рекордов
func NewMySQLArchiveRepository(db *sql.DB) *MySQLArchiveRepository {
	return &MySQLArchiveRepository{
		db: db,
	}
}

// EnsureTableExists создает таблицу архива, если она не существует
func (r *MySQLArchiveRepository) EnsureTableExists() error {
	query := `
	CREATE TABLE IF NOT EXISTS top_users_archive (
		id INT AUTO_INCREMENT PRIMARY KEY,
		reaped_at TIMESTAMP NOT NULL,
		record_count INT NOT NULL,
		payload MEDIUMBLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы top_users_archive: %w", err)
	}

	return nil
}

// SaveArchive сохраняет пакет удаленных записей в архив
func (r *MySQLArchiveRepository) SaveArchive(records []DailyUserRecord, reapedAt time.Time) error {
	if len(records) == 0 {
		return nil
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации архива рекордов: %w", err)
	}

	compressed := snappy.Encode(nil, payload)

	_, err = r.db.Exec(`
		INSERT INTO top_users_archive (reaped_at, record_count, payload)
		VALUES (?, ?, ?)
	`, reapedAt, len(records), compressed)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении архива рекордов: %w", err)
	}

	return nil
}

// DecodeArchivePayload распаковывает содержимое архивной записи
func DecodeArchivePayload(payload []byte) ([]DailyUserRecord, error) {
	decompressed, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка при распаковке архива рекордов: %w", err)
	}

	var records []DailyUserRecord
	if err := json.Unmarshal(decompressed, &records); err != nil {
		return nil, fmt.Errorf("ошибка при разборе архива рекордов: %w", err)
	}

	return records, nil
}
