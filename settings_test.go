package rx

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	level := logrus.GetLevel()
	formatter := logrus.StandardLogger().Formatter
	handler := getHandler()
	defaultMu.Lock()
	queue := loopQueue
	defaultMu.Unlock()

	t.Cleanup(func() {
		logrus.SetLevel(level)
		logrus.SetFormatter(formatter)
		SetHandler(handler)
		defaultMu.Lock()
		loopQueue = queue
		defaultMu.Unlock()
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("默认值", func(t *testing.T) {
		s := LoadSettings(viper.New())

		assert.Equal(t, Settings{
			LogLevel:  "INFO",
			LogFormat: "text",
			LoopQueue: defaultLoopQueue,
		}, s)
	})

	t.Run("读取rx前缀的键", func(t *testing.T) {
		v := viper.New()
		v.Set("rx.log.level", "debug")
		v.Set("rx.log.formatter", "JSON")
		v.Set("rx.log.verbose", true)
		v.Set("rx.loop.queue", 8)

		assert.Equal(t, Settings{
			LogLevel:  "DEBUG",
			LogFormat: "json",
			Verbose:   true,
			LoopQueue: 8,
		}, LoadSettings(v))
	})
}

func TestConfigure(t *testing.T) {
	restoreGlobals(t)

	v := viper.New()
	v.Set("rx.log.level", "warn")
	v.Set("rx.log.formatter", "json")
	v.Set("rx.log.verbose", true)
	v.Set("rx.loop.queue", 16)

	Configure(v)

	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)
	assert.Equal(t, &LogHandler{Verbose: true}, getHandler())

	defaultMu.Lock()
	defer defaultMu.Unlock()
	assert.Equal(t, 16, loopQueue)
}
