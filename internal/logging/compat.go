package logging

import (
	"fmt"
	"os"
)

// Fatal and Fatalf log at Error level and exit, for command-line startup
// failures. Prefer the explicitly leveled API elsewhere.

func (log *Logger) Fatal(v ...interface{}) {
	log.Log(Error, 1, "%s", fmt.Sprint(v...))
	os.Exit(1)
}

func (log *Logger) Fatalf(format string, v ...interface{}) {
	log.Log(Error, 1, format, v...)
	os.Exit(1)
}
