package growth

import (
	"math"
)

// RoundToHundredth округляет число до сотых (2 знака после запятой)
func RoundToHundredth(value float64) float64 {
	return math.Round(value*100) / 100
}

// CalculateCountGrowthRate вычисляет месячный темп роста показателя-счетчика
// по двум однодневным замерам на границах окна. Это намеренно грубая оценка
// по двум точкам, а не регрессия по всему окну.
func CalculateCountGrowthRate(first, last float64) float64 {
	if first == 0 {
		return 0
	}

	return RoundToHundredth((last - first) / first * 100)
}

// CalculateSizeGrowthRate вычисляет месячный темп роста показателя-объема
// по самому старому и самому новому наблюдению в окне. Дневное изменение
// приводится к процентам и проецируется на 30 дней.
// Если истории недостаточно или знаменатель неположителен, возвращается fallback.
func CalculateSizeGrowthRate(samples []GrowthSample, fallback float64) float64 {
	if len(samples) < 2 {
		return fallback
	}

	// Находим самое старое и самое новое наблюдение
	oldest := samples[0]
	newest := samples[0]
	for _, s := range samples[1:] {
		if s.Timestamp.Before(oldest.Timestamp) {
			oldest = s
		}
		if s.Timestamp.After(newest.Timestamp) {
			newest = s
		}
	}

	daysBetween := newest.Timestamp.Sub(oldest.Timestamp).Hours() / 24
	if daysBetween <= 0 || oldest.Value <= 0 {
		return fallback
	}

	dailyChange := (newest.Value - oldest.Value) / daysBetween
	dailyPercent := dailyChange / oldest.Value * 100
	monthlyRate := dailyPercent * 30

	return RoundToHundredth(monthlyRate)
}

// ProjectDaysToThreshold вычисляет количество дней до достижения порога
// при сложном (мультипликативном) дневном росте.
// Возвращает DaysAlreadyExceeded, если порог уже превышен,
// и DaysNeverAtCurrentRate, если при текущем темпе порог недостижим.
func ProjectDaysToThreshold(current, threshold, monthlyRatePercent float64) int {
	if current >= threshold {
		return DaysAlreadyExceeded
	}

	if monthlyRatePercent <= 0 {
		return DaysNeverAtCurrentRate
	}

	// Приводим месячный процент к дневной ставке сложного роста
	dailyRate := (monthlyRatePercent / 100) / 30

	// Защита от патологически малых ставок, дающих абсурдные сроки
	if dailyRate < 1e-6 {
		return DaysNeverAtCurrentRate
	}

	days := math.Log(threshold/current) / math.Log(1+dailyRate)

	if math.IsNaN(days) || math.IsInf(days, 0) {
		return DaysNeverAtCurrentRate
	}

	result := int(math.Ceil(days))
	if result < 1 {
		result = 1
	}

	return result
}
