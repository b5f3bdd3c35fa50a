package rx

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Settings holds the tunables read from viper.
type Settings struct {
	LogLevel  string
	LogFormat string
	Verbose   bool
	LoopQueue int
}

type viperWrapper struct {
	*viper.Viper
}

func (w *viperWrapper) GetStringDefault(key string, v string) string {
	if w.IsSet(key) {
		return w.GetString(key)
	}
	return v
}

func (w *viperWrapper) GetBoolDefault(key string, v bool) bool {
	if w.IsSet(key) {
		return w.GetBool(key)
	}
	return v
}

func (w *viperWrapper) GetIntDefault(key string, v int) int {
	if w.IsSet(key) {
		return w.GetInt(key)
	}
	return v
}

// LoadSettings reads the rx.* keys. A nil viper uses the global instance.
func LoadSettings(v *viper.Viper) Settings {
	if v == nil {
		v = viper.GetViper()
	}
	conf := &viperWrapper{v}
	return Settings{
		LogLevel:  strings.ToUpper(conf.GetStringDefault("rx.log.level", "INFO")),
		LogFormat: strings.ToLower(conf.GetStringDefault("rx.log.formatter", "text")),
		Verbose:   conf.GetBoolDefault("rx.log.verbose", false),
		LoopQueue: conf.GetIntDefault("rx.loop.queue", defaultLoopQueue),
	}
}

// Configure loads the settings and applies them to logrus and the default
// error handler.
func Configure(v *viper.Viper) Settings {
	s := LoadSettings(v)

	switch s.LogLevel {
	case "DEBUG":
		logrus.SetLevel(logrus.DebugLevel)
	case "WARN":
		logrus.SetLevel(logrus.WarnLevel)
	case "ERROR":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	switch s.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	}

	SetHandler(&LogHandler{Verbose: s.Verbose})
	setLoopQueue(s.LoopQueue)
	return s
}
