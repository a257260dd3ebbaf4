package topusers

import (
	"time"

	"github.com/LilVoxy/lms_analytics/utils"
)

// StaleRecordReaper периодически удаляет из таблицы рекордов записи старше
// срока хранения - независимо от их места в топе. После удаления таблица
// может опуститься ниже вместимости, и следующие вставки снова пройдут
// безусловно.
type StaleRecordReaper struct {
	repo    Repository
	archive ArchiveRepository
	logger  *utils.MonitorLogger
	config  TrackerConfig
}

// NewStaleRecordReaper создает новый экземпляр StaleRecordReaper
func NewStaleRecordReaper(repo Repository, archive ArchiveRepository, logger *utils.MonitorLogger, config TrackerConfig) *StaleRecordReaper {
	return &StaleRecordReaper{
		repo:    repo,
		archive: archive,
		logger:  logger,
		config:  config,
	}
}

// Reap удаляет записи старше срока хранения и архивирует их.
// Возвращает количество удаленных записей.
func (r *StaleRecordReaper) Reap() (int, error) {
	cutoff := time.Now().AddDate(0, 0, -r.config.RetentionDays)
	return r.ReapOlderThan(cutoff)
}

// ReapOlderThan удаляет записи старше указанной даты и архивирует их
func (r *StaleRecordReaper) ReapOlderThan(cutoff time.Time) (int, error) {
	var purged []DailyUserRecord

	err := r.repo.Atomically(func(set RecordSet) error {
		var err error
		purged, err = set.DeleteOlderThan(cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(purged) == 0 {
		r.logger.Debug("Устаревших рекордов не найдено (граница: %s)", cutoff.Format("2006-01-02"))
		return 0, nil
	}

	// Архивируем удаленные записи. Ошибка архивации некритична:
	// записи уже удалены, поэтому только логируем.
	if r.archive != nil {
		if err := r.archive.SaveArchive(purged, time.Now()); err != nil {
			r.logger.Error("Не удалось заархивировать удаленные рекорды: %v", err)
		}
	}

	r.logger.Info("Удалено устаревших рекордов: %d (старше %s)",
		len(purged), cutoff.Format("2006-01-02"))

	return len(purged), nil
}
