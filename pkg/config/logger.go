package config

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

var _logformat = logging.MustStringFormatter(
	`%{time:2006-01-02T15:04:05.000} %{module}::%{shortfunc} [%{shortfile}] > %{level:.5s} - %{message}`,
)

// CreateLogger builds a leveled logger writing to logfile (stderr if
// empty). The returned closer is nil when no file was opened.
func CreateLogger(module string, logfile string, loglevel string) (log *logging.Logger, lf io.Closer) {
	log = logging.MustGetLogger(module)
	var out io.Writer = os.Stderr
	if logfile != "" {
		f, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("cannot open logfile %v: %v", logfile, err)
		}
		out = f
		lf = f
	}

	backend := logging.NewLogBackend(out, "", 0)
	backendLeveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, _logformat))
	lvl, err := logging.LogLevel(loglevel)
	if err != nil {
		lvl = logging.INFO
	}
	backendLeveled.SetLevel(lvl, "")
	logging.SetBackend(backendLeveled)

	return log, lf
}
