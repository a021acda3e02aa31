// Package driver implements the process driver: the order-sensitive
// argument grammar, file-mode and REPL-mode dispatch, SIGINT handling, and
// exit-code policy. Where the original used substring-matched
// "CS_EXIT"/"CS_SIGINT" exception text to unwind out of covscript_main, this
// package returns the typed ErrExit for exit codes and handles a delivered
// SIGINT directly at the REPL loop's poll points.
package driver

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mikecovlee/covscript/pkg/cserr"
	"github.com/mikecovlee/covscript/pkg/instance"
	"github.com/mikecovlee/covscript/pkg/modules"
	"github.com/mikecovlee/covscript/pkg/repl"
	"github.com/mikecovlee/covscript/pkg/source"
	"golang.org/x/term"
)

const version = "1.0.0"

// ErrExit unwinds covscript_main's equivalent with a concrete exit code,
// replacing the original's fatal_error("CS_EXIT") substring sentinel.
type ErrExit struct {
	Code int
}

func (e ErrExit) Error() string { return fmt.Sprintf("exit(%d)", e.Code) }

// ErrSigint is the typed counterpart of the original's
// fatal_error("CS_SIGINT") substring sentinel. runREPL does not return it:
// its poll points reset the REPL and clean up the context in place and then
// continue the loop.
type ErrSigint struct{}

func (ErrSigint) Error() string { return "interrupted" }

// Config is the parsed form of the command line, one field per flag in
// the original's file-scope globals.
type Config struct {
	LogPath         string
	ImportPathExtra []string
	Silent          bool
	DumpAST         bool
	NoOptimize      bool
	CompileOnly     bool
	ShowHelp        bool
	DumpDependency  bool
	WaitBeforeExit  bool
	ShowVersion     bool
	REPL            bool
	FilePath        string
	ScriptArgs      []string
}

// ParseArgs implements covscript_args: a single left-to-right pass where
// `--log-path`/`--import-path` consume the following argument, every
// boolean flag may be set at most once, `--args`/`-a` stops option parsing
// immediately and hands everything after it (including tokens that look
// like flags) to the script as positional arguments, and the first token
// that doesn't start with `-` also stops option parsing (file-mode path).
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}
	expectLogPath := 0
	expectImportPath := 0
	index := 0
	for ; index < len(args); index++ {
		arg := args[index]
		switch {
		case expectLogPath == 1:
			cfg.LogPath = arg
			expectLogPath = 2
		case expectImportPath == 1:
			cfg.ImportPathExtra = append(cfg.ImportPathExtra, arg)
			expectImportPath = 2
		case strings.HasPrefix(arg, "-"):
			switch {
			case arg == "--args" || arg == "-a":
				cfg.REPL = true
				index++
				cfg.ScriptArgs = append(cfg.ScriptArgs, args[index:]...)
				return cfg, nil
			case (arg == "--silent" || arg == "-s") && !cfg.Silent:
				cfg.Silent = true
			case (arg == "--dump-ast" || arg == "-d") && !cfg.DumpAST:
				cfg.DumpAST = true
			case (arg == "--dependency" || arg == "-r") && !cfg.DumpDependency:
				cfg.DumpDependency = true
			case (arg == "--no-optimize" || arg == "-o") && !cfg.NoOptimize:
				cfg.NoOptimize = true
			case (arg == "--compile-only" || arg == "-c") && !cfg.CompileOnly:
				cfg.CompileOnly = true
			case (arg == "--help" || arg == "-h") && !cfg.ShowHelp:
				cfg.ShowHelp = true
			case (arg == "--wait-before-exit" || arg == "-w") && !cfg.WaitBeforeExit:
				cfg.WaitBeforeExit = true
			case (arg == "--version" || arg == "-v") && !cfg.ShowVersion:
				cfg.ShowVersion = true
			case (arg == "--log-path" || arg == "-l") && expectLogPath == 0:
				expectLogPath = 1
			case (arg == "--import-path" || arg == "-i") && expectImportPath == 0:
				expectImportPath = 1
			default:
				return nil, cserr.NewFatal("argument syntax error.")
			}
		default:
			cfg.FilePath = arg
			cfg.ScriptArgs = append(cfg.ScriptArgs, args[index:]...)
			index = len(args)
		}
	}
	if expectLogPath == 1 || expectImportPath == 1 {
		return nil, cserr.NewFatal("argument syntax error.")
	}
	if cfg.FilePath == "" {
		cfg.REPL = true
	}
	return cfg, nil
}

const helpText = `Usage:
    covscript [options...] <FILE> [arguments...]
    covscript [options...]

Interpreter Options:
    Option               Mnemonic   Function
  --compile-only        -c          Only compile
  --dump-ast            -d          Export abstract syntax tree
  --dependency          -r          Export module dependency

Interpreter REPL Options:
    Option               Mnemonic   Function
  --silent              -s          Close the command prompt
  --args <...>          -a <...>    Set the arguments

Common Options:
    Option               Mnemonic   Function
  --no-optimize         -o          Disable optimizer
  --help                -h          Show help infomation
  --version             -v          Show version infomation
  --wait-before-exit    -w          Wait before process exit
  --log-path    <PATH>  -l <PATH>   Set the log and AST exporting path
  --import-path <PATH>  -i <PATH>   Set the import path
`

const versionText = `Covariant Script Programming Language Interpreter
Version: %s
`

// Driver ties a parsed Config to stdout/stderr and the default import path.
type Driver struct {
	Config     *Config
	ImportPath []string
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
}

// New builds a Driver from already-parsed args.
func New(cfg *Config, baseImportPath []string, stdout, stderr io.Writer) *Driver {
	dirs := append([]string{}, baseImportPath...)
	dirs = append(dirs, cfg.ImportPathExtra...)
	d := &Driver{Config: cfg, ImportPath: dirs, Stdout: stdout, Stderr: stderr}
	if cfg.LogPath != "" {
		f, err := os.Create(cfg.LogPath)
		if err == nil {
			d.Logger = slog.New(slog.NewTextHandler(f, nil))
		}
	}
	return d
}

// Run is covscript_main: dispatch to help/version text, file mode, or REPL
// mode, and return the process's final error (possibly ErrExit).
func (d *Driver) Run() error {
	if d.Config.ShowHelp {
		fmt.Fprint(d.Stdout, helpText)
		return nil
	}
	if d.Config.ShowVersion {
		fmt.Fprintf(d.Stdout, versionText, version)
		return nil
	}
	if !d.Config.REPL && d.Config.FilePath != "" {
		return d.runFile()
	}
	return d.runREPL()
}

func (d *Driver) runFile() error {
	info, err := os.Stat(d.Config.FilePath)
	if err != nil || info.IsDir() {
		return cserr.NewFatal("invalid input file.")
	}

	// The script's own directory is searched before the rest of the import
	// path, so a script's sibling .csp imports resolve regardless of cwd.
	importPath := append([]string{filepath.Dir(d.Config.FilePath)}, d.ImportPath...)
	inst := instance.New(importPath, modules.OSFileSystem{}, d.Stdout)
	defer inst.Storage.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)
	inst.SigCh = sigCh

	if err := inst.Compile(d.Config.FilePath); err != nil {
		return d.report(err)
	}
	if d.Config.DumpAST {
		w := d.logOrStdout()
		inst.DumpAST(w)
	}
	if d.Config.DumpDependency {
		w := d.logOrStdout()
		for _, name := range inst.Translator.RegisteredModules() {
			fmt.Fprintln(w, name)
		}
	}
	if !d.Config.CompileOnly {
		if err := inst.Interpret(); err != nil {
			return d.report(err)
		}
	}
	return nil
}

func (d *Driver) logOrStdout() io.Writer {
	if d.Config.LogPath != "" {
		f, err := os.Create(d.Config.LogPath)
		if err == nil {
			return f
		}
	}
	return d.Stdout
}

func (d *Driver) report(err error) error {
	d.logError(err)
	return ErrExit{Code: -1}
}

// logError renders err to stderr and, when --log-path is set, as a
// structured record via d.Logger, without unwinding the caller - used for
// REPL-mode errors, which the original loop simply prints and continues
// past.
func (d *Driver) logError(err error) {
	cserr.Display(d.Stderr, err)
	if d.Logger == nil {
		return
	}
	if ce, ok := err.(cserr.CovError); ok {
		pos := ce.Pos()
		d.Logger.Error("covscript", "kind", ce.Kind().String(), "file", pos.File, "line", pos.Line, "message", ce.Message())
		return
	}
	d.Logger.Error("covscript", "message", err.Error())
}

// runREPL is the REPL half of covscript_main: the greeting banner, the
// SIGINT wiring via os/signal, and the read/poll/exec loop.
func (d *Driver) runREPL() error {
	if !d.Config.Silent {
		fmt.Fprintf(d.Stdout, "Covariant Script Programming Language Interpreter REPL\nVersion: %s\nPlease visit <http://covscript.org/> for more information.\n", version)
	}

	inst := instance.New(d.ImportPath, modules.OSFileSystem{}, d.Stdout)
	inst.Context.Source = source.NewStdinSource("")
	defer inst.Storage.Close()
	r := repl.New(inst)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	reader := bufio.NewReader(os.Stdin)
	isTTY := term.IsTerminal(int(os.Stdin.Fd()))

	pollSigint := func() bool {
		select {
		case <-sigCh:
			fmt.Fprintln(d.Stdout, "Keyboard Interrupt (Ctrl+C Received)")
			r.ResetStatus()
			instance.CleanupContext(inst)
			return true
		default:
			return false
		}
	}

	for {
		if !d.Config.Silent && isTTY {
			fmt.Fprint(d.Stdout, strings.Repeat("..", r.Level()), "> ")
		}

		// poll point before the blocking read, matching the original's
		// poll_event() call bracketing std::getline.
		if pollSigint() {
			continue
		}

		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		// poll point after the blocking read returns.
		if pollSigint() {
			continue
		}

		if err != nil {
			if err == io.EOF {
				break
			}
			return ErrExit{Code: -1}
		}

		if runErr := r.Exec(line); runErr != nil {
			d.logError(runErr)
		}
	}
	return nil
}
