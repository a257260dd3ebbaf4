package growth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleAt(dayOffset int, value float64) GrowthSample {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return GrowthSample{
		Timestamp: base.AddDate(0, 0, dayOffset),
		Value:     value,
	}
}

func TestCalculateCountGrowthRate(t *testing.T) {
	// Рост со 100 до 150 пользователей - 50% за окно
	assert.Equal(t, 50.0, CalculateCountGrowthRate(100, 150))

	// Без изменений темп нулевой
	assert.Equal(t, 0.0, CalculateCountGrowthRate(100, 100))

	// Падение дает отрицательный темп
	assert.Equal(t, -25.0, CalculateCountGrowthRate(100, 75))

	// Нулевая база: деление на ноль заменяется нулевым темпом
	assert.Equal(t, 0.0, CalculateCountGrowthRate(0, 500))

	// Округление до сотых
	assert.Equal(t, 33.33, CalculateCountGrowthRate(3, 4))
}

func TestCalculateSizeGrowthRate(t *testing.T) {
	fallback := 5.0

	// Недостаточно истории - возвращается запасной темп
	assert.Equal(t, fallback, CalculateSizeGrowthRate(nil, fallback))
	assert.Equal(t, fallback, CalculateSizeGrowthRate([]GrowthSample{sampleAt(0, 1000)}, fallback))

	// Оба наблюдения в один момент - интервал нулевой
	assert.Equal(t, fallback, CalculateSizeGrowthRate(
		[]GrowthSample{sampleAt(0, 1000), sampleAt(0, 1100)}, fallback))

	// Нулевая база тоже уводит на запасной темп
	assert.Equal(t, fallback, CalculateSizeGrowthRate(
		[]GrowthSample{sampleAt(0, 0), sampleAt(10, 1100)}, fallback))

	// 1000 -> 1100 за 10 дней: +10 в день, 1% в день, 30% в месяц
	assert.Equal(t, 30.0, CalculateSizeGrowthRate(
		[]GrowthSample{sampleAt(0, 1000), sampleAt(10, 1100)}, fallback))

	// Порядок наблюдений не важен - старое и новое находятся по времени
	assert.Equal(t, 30.0, CalculateSizeGrowthRate(
		[]GrowthSample{sampleAt(10, 1100), sampleAt(3, 1030), sampleAt(0, 1000)}, fallback))
}

func TestProjectDaysToThreshold_Sentinels(t *testing.T) {
	// Порог уже превышен
	assert.Equal(t, DaysAlreadyExceeded, ProjectDaysToThreshold(120, 100, 10))

	// Текущее значение ровно на пороге - тоже считается превышением
	assert.Equal(t, DaysAlreadyExceeded, ProjectDaysToThreshold(100, 100, 10))

	// Нулевой и отрицательный темп никогда не достигнут порога
	assert.Equal(t, DaysNeverAtCurrentRate, ProjectDaysToThreshold(50, 100, 0))
	assert.Equal(t, DaysNeverAtCurrentRate, ProjectDaysToThreshold(50, 100, -5))

	// Исчезающе малый темп отсекается как недостижимый
	assert.Equal(t, DaysNeverAtCurrentRate, ProjectDaysToThreshold(50, 100, 0.001))
}

func TestProjectDaysToThreshold_Compounding(t *testing.T) {
	// 30% в месяц = 1% в день; удвоение занимает ln(2)/ln(1.01) = 69.66 -> 70 дней
	assert.Equal(t, 70, ProjectDaysToThreshold(50, 100, 30))

	// Значение почти на пороге: результат не опускается ниже одного дня
	assert.Equal(t, 1, ProjectDaysToThreshold(99.9999, 100, 300))

	// Чем выше темп, тем меньше дней
	fast := ProjectDaysToThreshold(50, 100, 60)
	slow := ProjectDaysToThreshold(50, 100, 15)
	assert.Less(t, fast, slow)
}

func TestProjectDaysToThreshold_SentinelsDistinguishable(t *testing.T) {
	// Сентинелы отрицательны и различимы между собой при сериализации
	assert.Negative(t, DaysAlreadyExceeded)
	assert.Negative(t, DaysNeverAtCurrentRate)
	assert.NotEqual(t, DaysAlreadyExceeded, DaysNeverAtCurrentRate)
}

func TestRoundToHundredth(t *testing.T) {
	assert.Equal(t, 3.14, RoundToHundredth(3.14159))
	assert.Equal(t, 3.15, RoundToHundredth(3.146))
	assert.Equal(t, -2.5, RoundToHundredth(-2.499))
	assert.Equal(t, 0.0, RoundToHundredth(0))
}
