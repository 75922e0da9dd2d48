// Package logger — единый вывод логов tc-counter (logrus) с учётом quiet.
// Строки измерений сюда не попадают: они идут только в output sink.
package logger

import (
	"io"
	"os"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Quiet при true отключает информационные сообщения (Info, Debug); Warn и Error выводятся всегда.
var Quiet bool

// RunID — идентификатор текущего запуска, добавляется к каждой записи.
var RunID = xid.New().String()

var base = newBase(os.Stderr)

func newBase(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

func entry() *logrus.Entry {
	return base.WithFields(logrus.Fields{"component": "tc-counter", "run": RunID})
}

// SetLevel задаёт уровень логирования по имени (trace, debug, info, warn, error).
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	base.SetLevel(lvl)
	return nil
}

// SetOutput перенаправляет логи (тесты, файл).
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// With возвращает запись с дополнительным полем (например channel или source).
func With(key string, value interface{}) *logrus.Entry {
	return entry().WithField(key, value)
}

// Debug выводит отладочное сообщение, если Quiet == false.
func Debug(format string, args ...interface{}) {
	if Quiet {
		return
	}
	entry().Debugf(format, args...)
}

// Info выводит сообщение, если Quiet == false.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	entry().Infof(format, args...)
}

// Warn выводит предупреждение всегда.
func Warn(format string, args ...interface{}) {
	entry().Warnf(format, args...)
}

// Error выводит сообщение об ошибке всегда.
func Error(format string, args ...interface{}) {
	entry().Errorf(format, args...)
}
