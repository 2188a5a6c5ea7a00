package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"portfolio-analytics-api/internal/config"
)

func TestServiceHook_AddsServiceField(t *testing.T) {
	entry := &logrus.Entry{Data: logrus.Fields{}}

	require.NoError(t, serviceHook{}.Fire(entry))
	assert.Equal(t, serviceName, entry.Data["service"])
}

func TestServiceHook_KeepsExplicitServiceField(t *testing.T) {
	entry := &logrus.Entry{Data: logrus.Fields{"service": "upstream"}}

	require.NoError(t, serviceHook{}.Fire(entry))
	assert.Equal(t, "upstream", entry.Data["service"])
}

func TestGetFileWriter_AppliesRotationDefaults(t *testing.T) {
	w := getFileWriter(config.LoggerConfig{Filename: "analytics.log"})

	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, 100, lj.MaxSize)
	assert.Equal(t, 28, lj.MaxAge)
	assert.Equal(t, 3, lj.MaxBackups)
}
