// main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LilVoxy/lms_analytics/config"
	"github.com/LilVoxy/lms_analytics/dedication"
	"github.com/LilVoxy/lms_analytics/events"
	"github.com/LilVoxy/lms_analytics/growth"
	"github.com/LilVoxy/lms_analytics/models"
	"github.com/LilVoxy/lms_analytics/topusers"
	"github.com/LilVoxy/lms_analytics/utils"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// MonitorRunner связывает все компоненты аналитики использования:
// трекер рекордов, чистильщик устаревших записей, прогнозы роста
// и расчет времени вовлеченности
type MonitorRunner struct {
	config     config.MonitorConfig
	db         *sql.DB
	logger     *utils.MonitorLogger
	tracker    *topusers.TopUsersTracker
	reaper     *topusers.StaleRecordReaper
	growth     *growth.GrowthProcessor
	dedication *dedication.DedicationProcessor
	events     *events.MySQLEventService
	runLogRepo models.RunLogRepository

	// Защита от наложения запланированного запуска на уже идущий
	running atomic.Bool
}

// NewMonitorRunner создает новый экземпляр MonitorRunner
func NewMonitorRunner() (*MonitorRunner, error) {
	// Получаем конфигурацию
	monitorConfig := config.GetConfig()

	// Инициализируем логгер
	logger := utils.NewMonitorLogger(monitorConfig.EnableDetailedLogging)
	logger.Info("Инициализация Monitor Runner")

	// Подключаемся к базе данных
	db, err := config.ConnectDatabase(monitorConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Инициализируем репозиторий журнала запусков
	runLogRepo := models.NewMySQLRunLogRepository(db)
	if err := runLogRepo.CreateRunLogTable(); err != nil {
		return nil, fmt.Errorf("ошибка при создании таблицы журнала запусков: %w", err)
	}

	// Сервис потокового чтения журнала активности
	eventService := events.NewMySQLEventService(db, logger)

	// Трекер рекордов дневной активности и чистильщик
	trackerConfig := topusers.TrackerConfig{
		Capacity:      monitorConfig.TopUsersCapacity,
		RetentionDays: monitorConfig.RetentionDays,
	}
	topUsersRepo := topusers.NewMySQLTopUsersRepository(db)
	if err := topUsersRepo.EnsureTableExists(); err != nil {
		return nil, fmt.Errorf("ошибка при создании таблицы рекордов: %w", err)
	}
	archiveRepo := topusers.NewMySQLArchiveRepository(db)
	if err := archiveRepo.EnsureTableExists(); err != nil {
		return nil, fmt.Errorf("ошибка при создании таблицы архива: %w", err)
	}
	tracker := topusers.NewTopUsersTracker(topUsersRepo, logger, trackerConfig)
	reaper := topusers.NewStaleRecordReaper(topUsersRepo, archiveRepo, logger, trackerConfig)

	// Процессор прогнозов роста
	growthConfig := growth.DefaultConfig()
	growthConfig.WindowDays = monitorConfig.GrowthWindowDays
	growthProcessor := growth.NewGrowthProcessor(
		growth.NewDataService(db),
		growth.NewMySQLProjectionRepository(db),
		logger,
		growthConfig,
		monitorConfig.Thresholds.MaxUsers,
		monitorConfig.Thresholds.MaxDiskBytes,
	)

	// Процессор времени вовлеченности
	dedicationConfig := dedication.Config{
		SessionGapLimitSeconds: monitorConfig.SessionGapLimitSeconds,
		TopN:                   monitorConfig.DedicationTopN,
	}
	dedicationProcessor := dedication.NewDedicationProcessor(
		dedication.NewMySQLDataService(db, eventService),
		logger,
		dedicationConfig,
	)

	return &MonitorRunner{
		config:     monitorConfig,
		db:         db,
		logger:     logger,
		tracker:    tracker,
		reaper:     reaper,
		growth:     growthProcessor,
		dedication: dedicationProcessor,
		events:     eventService,
		runLogRepo: runLogRepo,
	}, nil
}

// Close закрывает соединение с базой данных
func (r *MonitorRunner) Close() {
	r.logger.Info("Завершение работы Monitor Runner")
	config.CloseDatabase(r.db)
}

// ExecuteAnalytics выполняет полный аналитический цикл
func (r *MonitorRunner) ExecuteAnalytics(ctx context.Context) error {
	// Не допускаем наложения запусков
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Info("Предыдущий запуск еще выполняется, новый запуск пропущен")
		return nil
	}
	defer r.running.Store(false)

	startTime := time.Now()
	runUUID := uuid.NewString()
	r.logger.LogRunStart(runUUID)

	// Создаем запись в журнале запусков
	logID, err := r.runLogRepo.CreateLogEntry(runUUID, startTime)
	if err != nil {
		r.logger.Error("Ошибка при создании записи в журнале запусков: %v", err)
		return fmt.Errorf("ошибка при создании записи в журнале запусков: %w", err)
	}

	// Окно анализа: последние GrowthWindowDays дней
	from := startTime.AddDate(0, 0, -r.config.GrowthWindowDays)

	lastRun, err := r.runLogRepo.GetLastSuccessfulRun()
	if err != nil {
		r.logger.Error("Не удалось получить информацию о последнем успешном запуске: %v. Будет обработано окно целиком.", err)
	}
	if lastRun != nil {
		r.logger.Info("Последний успешный запуск: %v", lastRun.EndTime)
	}

	// Диагностика объема данных в окне анализа
	if totalEvents, err := r.events.CountEventsInRange(ctx, from, startTime); err != nil {
		r.logger.Debug("Не удалось подсчитать события в окне анализа: %v", err)
	} else {
		r.logger.Info("Окно анализа %s - %s: событий в журнале: %d",
			from.Format("2006-01-02"), startTime.Format("2006-01-02"), totalEvents)
	}

	// 1. Рекорды дневной активности
	counts, err := topusers.ComputeDailyActiveUsers(ctx, r.events, from, startTime)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка при расчете дневной активности: %v", err)
		r.logger.Error(errMsg)
		r.updateRunLogFailure(logID, errMsg)
		return fmt.Errorf("ошибка при расчете дневной активности: %w", err)
	}
	daysTracked := r.tracker.RecordDailyPeaks(counts)
	r.logger.Info("Зафиксированы рекорды дневной активности: %d дней", daysTracked)

	// 2. Чистка устаревших рекордов
	reaped, err := r.reaper.Reap()
	if err != nil {
		// Неудачная чистка не прерывает аналитический цикл
		r.logger.Error("Ошибка при чистке устаревших рекордов: %v", err)
	}

	// 3. Прогнозы роста ресурсных показателей
	projectionsSaved, err := r.growth.Process(ctx)
	if err != nil {
		// Некритичный компонент, цикл продолжается
		r.logger.Error("Ошибка при расчете прогнозов роста: %v", err)
	}

	// 4. Рейтинг курсов по времени вовлеченности
	topCourses, err := r.dedication.TopCourses(ctx, from, startTime)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка при расчете времени вовлеченности: %v", err)
		r.logger.Error(errMsg)
		r.updateRunLogFailure(logID, errMsg)
		return fmt.Errorf("ошибка при расчете времени вовлеченности: %w", err)
	}
	coursesProcessed := len(topCourses)

	for _, course := range topCourses {
		r.logger.Info("Курс %d: %s (%d место, %.2f%%, студентов: %d)",
			course.CourseID, course.FormattedDuration, course.Rank,
			course.DedicationPercent, course.EnrolledStudents)
	}

	// Обновляем запись в журнале
	if err := r.runLogRepo.UpdateLogEntrySuccess(
		logID, time.Now(), daysTracked, coursesProcessed, projectionsSaved, reaped); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале запусков: %v", err)
	}

	r.logger.LogRunComplete(startTime, daysTracked, coursesProcessed, reaped)
	return nil
}

// updateRunLogFailure обновляет запись в журнале при ошибке
func (r *MonitorRunner) updateRunLogFailure(logID int, errorMessage string) {
	if err := r.runLogRepo.UpdateLogEntryFailure(logID, time.Now(), errorMessage); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале запусков: %v", err)
	}
}

// StartScheduler запускает планировщик для регулярного выполнения аналитики
func (r *MonitorRunner) StartScheduler(ctx context.Context) {
	scheduler := gocron.NewScheduler(time.UTC)

	r.logger.Info("Запуск планировщика аналитики с интервалом %v", r.config.RunInterval)

	_, err := scheduler.Every(r.config.RunInterval).Do(func() {
		r.logger.Info("Запланированный запуск аналитического процесса")
		if err := r.ExecuteAnalytics(ctx); err != nil {
			r.logger.Error("Ошибка при выполнении запланированной аналитики: %v", err)
		}
	})

	if err != nil {
		r.logger.Error("Ошибка при настройке планировщика: %v", err)
		return
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик
	scheduler.Stop()
	r.logger.Info("Планировщик аналитики остановлен")
}

// RunOnce запускает аналитический процесс один раз
func RunOnce() {
	runner, err := NewMonitorRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании Monitor Runner: %v", err)
	}
	defer runner.Close()

	if err := runner.ExecuteAnalytics(context.Background()); err != nil {
		log.Fatalf("Ошибка при выполнении аналитики: %v", err)
	}
}

// RunScheduled запускает аналитический процесс по расписанию
func RunScheduled() {
	// Создаем контекст, который будет отменен при получении сигнала завершения
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов завершения
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	// Запускаем горутину для обработки сигналов
	go func() {
		<-signalCh
		log.Println("Получен сигнал завершения. Останавливаем Monitor Runner...")
		cancel()
	}()

	runner, err := NewMonitorRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании Monitor Runner: %v", err)
	}
	defer runner.Close()

	// Запускаем планировщик
	runner.StartScheduler(ctx)
}

// RunDedication запускает только расчет рейтинга курсов за указанный период
func RunDedication(days int) {
	log.Println("Запуск расчета времени вовлеченности")

	runner, err := NewMonitorRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании Monitor Runner: %v", err)
	}
	defer runner.Close()

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	courses, err := runner.dedication.TopCourses(context.Background(), from, to)
	if err != nil {
		log.Fatalf("Ошибка при расчете времени вовлеченности: %v", err)
	}

	for _, course := range courses {
		log.Printf("%d. Курс %d: %s (%.2f%%, студентов: %d, в среднем %s)",
			course.Rank, course.CourseID, course.FormattedDuration,
			course.DedicationPercent, course.EnrolledStudents,
			dedication.FormatDuration(course.AvgDedicationSeconds))
	}

	log.Println("Расчет времени вовлеченности успешно завершен")
}

// RunGrowth запускает только расчет прогнозов роста
func RunGrowth() {
	log.Println("Запуск расчета прогнозов роста")

	runner, err := NewMonitorRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании Monitor Runner: %v", err)
	}
	defer runner.Close()

	if _, err := runner.growth.Process(context.Background()); err != nil {
		log.Fatalf("Ошибка при расчете прогнозов роста: %v", err)
	}

	log.Println("Расчет прогнозов роста успешно завершен")
}

func main() {
	// Параметры командной строки
	modePtr := flag.String("mode", "scheduled", "Режим работы: scheduled, once, dedication или growth")
	daysPtr := flag.Int("days", 30, "Количество дней для анализа (только для режима dedication)")

	flag.Parse()

	log.Println("Запуск Monitor Runner в режиме:", *modePtr)

	switch *modePtr {
	case "once":
		RunOnce()
	case "scheduled":
		RunScheduled()
	case "dedication":
		RunDedication(*daysPtr)
	case "growth":
		RunGrowth()
	default:
		log.Println("Неизвестный режим работы:", *modePtr)
		log.Println("Доступные режимы: scheduled, once, dedication, growth")
		os.Exit(1)
	}

	log.Println("Monitor Runner завершил работу")
}
