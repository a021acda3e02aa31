// Command covscript is the CovScript process driver: it parses the
// command line, then either compiles and interprets a single file or
// drops into the REPL.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mikecovlee/covscript/pkg/cserr"
	"github.com/mikecovlee/covscript/pkg/driver"
	"golang.org/x/term"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := driver.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return -1
	}

	d := driver.New(cfg, defaultImportPath(), os.Stdout, os.Stderr)

	errorCode := 0
	if runErr := d.Run(); runErr != nil {
		var exit driver.ErrExit
		if errors.As(runErr, &exit) {
			errorCode = exit.Code
		} else {
			cserr.Display(os.Stderr, runErr)
			errorCode = -1
		}
	}

	if cfg.WaitBeforeExit {
		waitBeforeExit(errorCode)
	}
	return errorCode
}

// defaultImportDir is the built-in fallback import path. No environment
// variable is consulted here - the original's cs::get_import_path() is a
// build-time string, not a runtime env lookup.
const defaultImportDir = "."

func defaultImportPath() []string {
	return []string{defaultImportDir}
}

// waitBeforeExit mirrors the original's kbhit/getch spin-wait, but only
// when stdin is actually a terminal - blocking on a keypress that can
// never arrive (piped input, CI) would just hang the process.
func waitBeforeExit(code int) {
	fmt.Fprintf(os.Stderr, "\nProcess finished with exit code %d\n", code)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	fmt.Fprintln(os.Stderr, "\nPress any key to exit...")
	buf := make([]byte, 1)
	os.Stdin.Read(buf)
}
