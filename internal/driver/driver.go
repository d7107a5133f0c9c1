// Package driver orchestrates program-level compilation: it fans one
// jsgen compile out per script, bounded by the configured job count, and
// collects results, timings and progress events.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"sprocket/internal/ir"
	"sprocket/internal/jsgen"
	"sprocket/internal/observ"
	"sprocket/internal/project"
	"sprocket/internal/trace"
)

// Stage is the progress state of one script.
type Stage uint8

const (
	StageQueued Stage = iota
	StageCompiling
	StageDone
	StageFailed
)

// String returns the string representation of Stage.
func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageCompiling:
		return "compiling"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports one script's progress to an observer such as the TUI.
type Event struct {
	Script string
	Stage  Stage
	Err    error
}

// Options configures a program compile.
type Options struct {
	Config project.Config
	// Provider resolves extension transformers. May be nil.
	Provider jsgen.TransformerProvider
	// Pools are the shared name pools; a fresh set is created when nil.
	Pools  *jsgen.Pools
	Tracer trace.Tracer
	// Events receives progress events when non-nil. The channel is not
	// closed by the driver.
	Events chan<- Event
}

// ScriptResult is the outcome of one script's compilation.
type ScriptResult struct {
	Target        string
	TopBlockID    string
	FactorySource string
	Err           error
}

// ProgramResult aggregates every script of a compile run.
type ProgramResult struct {
	Scripts []ScriptResult
	Timing  observ.Report
}

// Failed counts scripts that did not compile.
func (r *ProgramResult) Failed() int {
	n := 0
	for _, s := range r.Scripts {
		if s.Err != nil {
			n++
		}
	}
	return n
}

type scriptJob struct {
	target *ir.TargetInfo
	script *ir.Script
	label  string
}

// CompileProgram compiles every script of every target. Individual script
// failures are recorded per-script; only infrastructure problems return
// an error.
func CompileProgram(ctx context.Context, prog *ir.Program, opts Options) (*ProgramResult, error) {
	if prog == nil {
		return nil, fmt.Errorf("driver: nil program")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	pools := opts.Pools
	if pools == nil {
		pools = jsgen.NewPools()
	}

	jobs := runtime.NumCPU()
	if opts.Config.Compile.Jobs > 0 {
		converted, err := safecast.Conv[int](opts.Config.Compile.Jobs)
		if err != nil {
			return nil, fmt.Errorf("driver: compile.jobs overflow: %w", err)
		}
		jobs = converted
	}

	var queue []scriptJob
	for _, target := range prog.Targets {
		for _, script := range target.Scripts {
			queue = append(queue, scriptJob{
				target: target,
				script: script,
				label:  fmt.Sprintf("%s/%s", target.Name, script.TopBlockID),
			})
		}
	}
	for _, job := range queue {
		emitEvent(opts.Events, Event{Script: job.label, Stage: StageQueued})
	}

	timer := observ.NewTimer()
	runIdx := timer.Begin("compile program")
	tracer.Emit(trace.Point(trace.ScopeDriver, "compile start", map[string]string{
		"scripts": fmt.Sprint(len(queue)),
	}))

	env := jsgen.Env{
		SupportsNullishCoalescing: opts.Config.Environment.NullishCoalescing,
		Debug:                     opts.Config.Environment.Debug,
	}

	results := make([]ScriptResult, len(queue))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(queue), 1)))
	for i, job := range queue {
		g.Go(func(i int, job scriptJob) func() error {
			return func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				emitEvent(opts.Events, Event{Script: job.label, Stage: StageCompiling})
				res, err := jsgen.Compile(job.script, jsgen.Options{
					Target:     job.target,
					Procedures: job.target.Procedures,
					Pools:      pools,
					Provider:   opts.Provider,
					Env:        env,
					Tracer:     tracer,
				})
				sr := ScriptResult{
					Target:     job.target.Name,
					TopBlockID: job.script.TopBlockID,
					Err:        err,
				}
				if err == nil {
					sr.FactorySource = res.FactorySource
					emitEvent(opts.Events, Event{Script: job.label, Stage: StageDone})
				} else {
					tracer.Emit(trace.Warning(trace.ScopeScript, "script failed to compile", map[string]string{
						"script": job.label,
						"err":    err.Error(),
					}))
					emitEvent(opts.Events, Event{Script: job.label, Stage: StageFailed, Err: err})
				}
				mu.Lock()
				results[i] = sr
				mu.Unlock()
				return nil
			}
		}(i, job))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timer.End(runIdx, fmt.Sprintf("%d scripts, %d failed", len(queue), countFailed(results)))
	tracer.Emit(trace.Point(trace.ScopeDriver, "compile end", nil))
	return &ProgramResult{Scripts: results, Timing: timer.Report()}, nil
}

func emitEvent(ch chan<- Event, ev Event) {
	if ch != nil {
		ch <- ev
	}
}

func countFailed(results []ScriptResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
