package logger

import (
	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init настраивает структурированный логгер.
// В development пишем текстом, иначе JSON. Log не пересоздаётся, поэтому
// записи, полученные через WithComponent до Init, тоже подхватывают настройки.
func Init(level string, development bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if development {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// WithComponent возвращает запись лога с меткой компонента.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
