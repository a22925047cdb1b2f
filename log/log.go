package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	Info = &Logger{l: log.New(os.Stdout, "INFO ", log.LstdFlags|log.Lshortfile), out: os.Stdout}
	Erro = &Logger{l: log.New(os.Stderr, "ERRO ", log.LstdFlags|log.Lshortfile), out: os.Stderr}
	Debg = &Logger{l: log.New(os.Stdout, "DEBG ", log.LstdFlags|log.Lshortfile), out: os.Stdout}
)

// Logger is a switchable stdlib logger. Off discards output, On restores the
// original writer.
type Logger struct {
	l   *log.Logger
	out io.Writer
}

func (l *Logger) On() {
	l.l.SetOutput(l.out)
}

func (l *Logger) Off() {
	l.l.SetOutput(io.Discard)
}

func (l *Logger) Printf(format string, v ...any) {
	_ = l.l.Output(2, fmt.Sprintf(format, v...))
}

func (l *Logger) Println(v ...any) {
	_ = l.l.Output(2, fmt.Sprintln(v...))
}
