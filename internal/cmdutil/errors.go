// Package cmdutil holds the error reporting helpers shared by the commands.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Replaced in tests.
var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	exit(1)
}

func Check(err error) {
	if err != nil {
		Fatalf("%v", err)
	}
}

func Checkf(err error, format string, otherArgs ...interface{}) {
	if err != nil {
		Fatalf(format+": %v", append(otherArgs, err)...)
	}
}

func Warnf(format string, args ...interface{}) {
	format = "WARNING: " + format + "\n"
	if f, ok := stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stderr, color.YellowString(format, args...))
	} else {
		fmt.Fprintf(stderr, format, args...)
	}
}

// ContextForMainProcess returns a context that is cancelled on SIGINT or SIGTERM.
func ContextForMainProcess(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
