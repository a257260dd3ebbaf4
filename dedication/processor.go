package dedication

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/LilVoxy/lms_analytics/events"
	"github.com/LilVoxy/lms_analytics/utils"
)

// roundToHundredth округляет число до сотых (2 знака после запятой)
func roundToHundredth(value float64) float64 {
	return math.Round(value*100) / 100
}

// DedicationProcessor рассчитывает время вовлеченности по курсам
// и строит рейтинг курсов по суммарному времени
type DedicationProcessor struct {
	dataService DataService
	logger      *utils.MonitorLogger
	config      Config
}

// NewDedicationProcessor создает новый процессор времени вовлеченности
func NewDedicationProcessor(dataService DataService, logger *utils.MonitorLogger, config Config) *DedicationProcessor {
	return &DedicationProcessor{
		dataService: dataService,
		logger:      logger,
		config:      config,
	}
}

// CourseDedication рассчитывает показатели вовлеченности одного курса за период
func (p *DedicationProcessor) CourseDedication(ctx context.Context, courseID int, from, to time.Time) (*CourseDedication, error) {
	aggregator := NewSessionAggregator(p.config.SessionGapLimitSeconds)

	err := p.dataService.StreamCourseEvents(ctx, courseID, from, to, func(e events.RawEvent) error {
		aggregator.Add(e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении событий курса %d: %w", courseID, err)
	}

	total := aggregator.TotalSeconds()

	if skipped := aggregator.SkippedEvents(); skipped > 0 {
		p.logger.Debug("Курс %d: пропущено событий при агрегации: %d", courseID, skipped)
	}

	enrolled, err := p.dataService.CountEnrolledStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// Среднее время на студента с защитой от деления на ноль
	var avg int64
	if enrolled > 0 {
		avg = total / int64(enrolled)
	}

	return &CourseDedication{
		CourseID:               courseID,
		TotalDedicationSeconds: total,
		FormattedDuration:      FormatDuration(total),
		EnrolledStudents:       enrolled,
		AvgDedicationSeconds:   avg,
	}, nil
}

// TopCourses строит рейтинг курсов по суммарному времени вовлеченности.
// Курсы с нулевым временем в рейтинг не попадают. Доля каждого курса
// считается от суммы по всем курсам платформы, а не только по топу.
func (p *DedicationProcessor) TopCourses(ctx context.Context, from, to time.Time) ([]CourseDedication, error) {
	startTime := time.Now()

	courseIDs, err := p.dataService.ListCourseIDs(ctx, from, to)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Расчет времени вовлеченности для %d курсов", len(courseIDs))

	// Считаем показатели каждого курса отдельным проходом по его событиям
	var results []CourseDedication
	var platformTotal int64

	for _, courseID := range courseIDs {
		cd, err := p.CourseDedication(ctx, courseID, from, to)
		if err != nil {
			// Ошибка по одному курсу не прерывает расчет остальных
			p.logger.Error("Не удалось рассчитать вовлеченность курса %d: %v", courseID, err)
			continue
		}

		platformTotal += cd.TotalDedicationSeconds

		// Курсы без активности в рейтинге не участвуют
		if cd.TotalDedicationSeconds == 0 {
			continue
		}

		results = append(results, *cd)
	}

	// Сортируем по убыванию суммарного времени
	sort.Slice(results, func(i, j int) bool {
		return results[i].TotalDedicationSeconds > results[j].TotalDedicationSeconds
	})

	if len(results) > p.config.TopN {
		results = results[:p.config.TopN]
	}

	// Заполняем долю от общего времени и место в рейтинге
	for i := range results {
		if platformTotal > 0 {
			results[i].DedicationPercent = roundToHundredth(
				float64(results[i].TotalDedicationSeconds) / float64(platformTotal) * 100)
		}
		results[i].Rank = i + 1
	}

	p.logger.Info("Рейтинг курсов построен за %v. Курсов в рейтинге: %d",
		time.Since(startTime), len(results))

	return results, nil
}
