package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// MonitorLogger представляет логгер для процесса мониторинга использования
type MonitorLogger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	isVerbose   bool
}

// NewMonitorLogger создает новый экземпляр логгера мониторинга
func NewMonitorLogger(verbose bool) *MonitorLogger {
	// Создаем или открываем лог-файл для записи
	currentTime := time.Now().Format("2006-01-02")
	logFileName := fmt.Sprintf("monitor_log_%s.log", currentTime)

	file, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Не удалось открыть или создать файл лога: %v", err)
	}

	return NewMonitorLoggerWithWriter(file, verbose)
}

// NewMonitorLoggerWithWriter создает логгер, который пишет в произвольный writer.
// Используется в тестах, чтобы не создавать лог-файлы.
func NewMonitorLoggerWithWriter(w io.Writer, verbose bool) *MonitorLogger {
	return &MonitorLogger{
		infoLogger:  log.New(w, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		debugLogger: log.New(w, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
		isVerbose:   verbose,
	}
}

// Info логирует информационное сообщение
func (l *MonitorLogger) Info(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.infoLogger.Println(msg)

	// Также выводим в стандартный вывод
	log.Println("INFO:", msg)
}

// Error логирует сообщение об ошибке
func (l *MonitorLogger) Error(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.errorLogger.Println(msg)

	// Также выводим в стандартный вывод
	log.Println("ERROR:", msg)
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *MonitorLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}

	msg := fmt.Sprintf(format, v...)
	l.debugLogger.Println(msg)

	// Также выводим в стандартный вывод
	log.Println("DEBUG:", msg)
}

// LogRunStart логирует начало аналитического процесса
func (l *MonitorLogger) LogRunStart(runID string) {
	l.Info("Начало выполнения аналитического процесса, запуск %s", runID)
}

// LogRunComplete логирует завершение аналитического процесса
func (l *MonitorLogger) LogRunComplete(startTime time.Time, daysTracked, coursesProcessed, recordsReaped int) {
	duration := time.Since(startTime)
	l.Info("Аналитический процесс завершён. Длительность: %v", duration)
	l.Info("Обработано: %d дней активности, %d курсов, удалено устаревших записей: %d",
		daysTracked, coursesProcessed, recordsReaped)
}
