package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sprocket/internal/driver"
	"sprocket/internal/project"
	"sprocket/internal/trace"
)

var (
	compileOut string
	compileUI  string
)

func init() {
	compileCmd.Flags().StringVarP(&compileOut, "out", "o", "", "directory for emitted factories (default: print a summary only)")
	compileCmd.Flags().StringVar(&compileUI, "ui", "auto", "progress UI (auto|on|off)")
}

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <program>",
	Short: "Compile a serialized program",
	Long:  "Compile every script of a serialized program into script factories.",
	Args:  cobra.ExactArgs(1),
	RunE:  compileExecution,
}

func compileExecution(cmd *cobra.Command, args []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	levelOverride, err := cmd.Flags().GetString("trace-level")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}

	cfg, err := project.LoadConfig(configPath)
	if err != nil {
		return err
	}
	level := cfg.TraceLevel()
	if levelOverride != "" {
		level, err = trace.ParseLevel(levelOverride)
		if err != nil {
			return err
		}
	}
	tracer := trace.Tracer(trace.Nop)
	if level > trace.LevelOff {
		tracer = trace.NewStreamTracer(cmd.ErrOrStderr(), level)
	}

	prog, err := project.LoadProgram(args[0])
	if err != nil {
		return err
	}

	opts := driver.Options{Config: cfg, Tracer: tracer}
	var result *driver.ProgramResult
	if useProgressUI(compileUI) {
		result, err = runCompileWithUI(cmd.Context(), "compiling "+filepath.Base(args[0]), prog, opts)
	} else {
		result, err = driver.CompileProgram(cmd.Context(), prog, opts)
	}
	if err != nil {
		return err
	}

	if compileOut != "" {
		if err := writeOutputs(compileOut, result); err != nil {
			return err
		}
	}
	printSummary(cmd, result)
	if showTimings {
		fmt.Fprint(cmd.OutOrStdout(), result.Timing.Summary())
	}
	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d script(s) failed to compile", failed)
	}
	return nil
}

func useProgressUI(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

// writeOutputs emits one .js file per compiled script.
func writeOutputs(dir string, result *driver.ProgramResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, script := range result.Scripts {
		if script.Err != nil {
			continue
		}
		name := fmt.Sprintf("%s_%s.js", safeFileName(script.Target), safeFileName(script.TopBlockID))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(script.FactorySource+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}

func printSummary(cmd *cobra.Command, result *driver.ProgramResult) {
	ok := len(result.Scripts) - result.Failed()
	fmt.Fprintf(cmd.OutOrStdout(), "compiled %d/%d scripts\n", ok, len(result.Scripts))
	for _, script := range result.Scripts {
		if script.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s/%s: %v\n", script.Target, script.TopBlockID, script.Err)
		}
	}
}
