// Package logging wraps the standard logger with the bracket-tagged
// component prefixes used across this codebase ("[broker] ...", "[directory] ...").
package logging

import (
	"log"
	"os"
)

// Logger prefixes every line with a component tag, the same convention
// the rest of this system uses for its log output.
type Logger struct {
	tag string
	l   *log.Logger
}

// Tagged returns a Logger whose every line is prefixed with "[component]".
func Tagged(component string) *Logger {
	return &Logger{
		tag: "[" + component + "] ",
		l:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (lg *Logger) Printf(format string, args ...interface{}) {
	lg.l.Printf(lg.tag+format, args...)
}

func (lg *Logger) Println(args ...interface{}) {
	lg.l.Println(append([]interface{}{lg.tag}, args...)...)
}

func (lg *Logger) Errorf(format string, args ...interface{}) {
	lg.l.Printf(lg.tag+"[ERRO] "+format, args...)
}
