/*
Command rebuild is an interactive shell for the rebuild language.

All inputs of a session are compiled by one compilation unit. Functions
declared in one input remain callable in later ones, variables do not. A line
ending in ':' opens a block; the following lines are collected until an empty
line. An argument '-' reads input from stdin, line by line.

Shell commands start with a colon:

    :tree    show the syntax tree of the last input
    :diag    show the diagnostics of the last input again
    :globals list the global names
    :quit    leave the shell

Settings may be read from a TOML file:

    stack_size      = 65536
    max_diagnostics = 20
    trace           = "Info"
    prompt          = "rebuild> "

The trace level applies to all components.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/npillmayer/rebuild/compiler"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// tracer traces with key 'rebuild.repl'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.repl")
}

// Config holds the settings of a session.
type Config struct {
	StackSize      int    `toml:"stack_size"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Trace          string `toml:"trace"`
	Prompt         string `toml:"prompt"`
}

func defaultConfig() Config {
	return Config{Trace: "Info", Prompt: "rebuild> "}
}

// loadConfig overlays the defaults with the settings found in path.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if cfg.StackSize < 0 {
		return cfg, fmt.Errorf("%s: stack_size must not be negative", path)
	}
	if cfg.MaxDiagnostics < 0 {
		return cfg, fmt.Errorf("%s: max_diagnostics must not be negative", path)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "rebuild [file...]",
	Short: "Interactive shell for the rebuild language",
	Long: `rebuild compiles and executes programs interactively.
Files given as arguments are executed before the shell starts.`,
	RunE: runShell,
}

func main() {
	rootCmd.Flags().String("trace", "", "trace level [Debug|Info|Error]")
	rootCmd.Flags().String("init", "", "file to execute on startup")
	rootCmd.Flags().String("config", "", "TOML configuration file")
	rootCmd.Flags().Bool("batch", false, "execute the files and exit")
	rootCmd.Flags().Int("max-diag", 0, "maximum number of diagnostics per input")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("trace"); level != "" {
		cfg.Trace = level
	}
	if n, _ := cmd.Flags().GetInt("max-diag"); n > 0 {
		cfg.MaxDiagnostics = n
	}
	setTraceLevel(tracing.TraceLevelFromString(cfg.Trace))
	intp, err := NewIntp(cfg, os.Stdout)
	if err != nil {
		return err
	}
	initf, _ := cmd.Flags().GetString("init")
	intp.loadFile(initf)
	for _, arg := range args {
		if arg == "-" {
			if err := intp.scanLines(os.Stdin); err != nil {
				return err
			}
			continue
		}
		intp.loadFile(arg)
	}
	if batch, _ := cmd.Flags().GetBool("batch"); batch {
		return nil
	}
	pterm.Info.Println("Welcome to rebuild")
	tracer().Infof("Quit with <ctrl>D or :quit")
	return intp.REPL()
}

// setTraceLevel sets the level of the shell's tracer and of the tracers of
// all components.
func setTraceLevel(level tracing.TraceLevel) {
	tracer().SetTraceLevel(level)
	for _, key := range compiler.TraceKeys {
		tracing.Select(key).SetTraceLevel(level)
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
