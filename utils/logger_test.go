package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMonitorLoggerWithWriter(&buf, false)

	logger.Info("запуск %d", 7)
	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "запуск 7")

	logger.Error("сбой подключения")
	assert.Contains(t, buf.String(), "ERROR")
}

func TestMonitorLogger_DebugGatedByVerbose(t *testing.T) {
	var buf bytes.Buffer

	quiet := NewMonitorLoggerWithWriter(&buf, false)
	quiet.Debug("не должно попасть в лог")
	assert.NotContains(t, buf.String(), "DEBUG")

	verbose := NewMonitorLoggerWithWriter(&buf, true)
	verbose.Debug("отладочное сообщение")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "отладочное сообщение")
}
