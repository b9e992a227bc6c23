package logger

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// InitLogger configures the global logrus logger.
// Log level is taken from LOG_LEVEL env var, defaults to INFO.
func InitLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}

	log.SetLevel(level)
}
