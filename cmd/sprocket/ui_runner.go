package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"sprocket/internal/driver"
	"sprocket/internal/ir"
	"sprocket/internal/ui"
)

type compileOutcome struct {
	result *driver.ProgramResult
	err    error
}

// runCompileWithUI drives the compile in the background while Bubble Tea
// renders driver events.
func runCompileWithUI(ctx context.Context, title string, prog *ir.Program, opts driver.Options) (*driver.ProgramResult, error) {
	labels := make([]string, 0)
	for _, target := range prog.Targets {
		for _, script := range target.Scripts {
			labels = append(labels, fmt.Sprintf("%s/%s", target.Name, script.TopBlockID))
		}
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Events = events
		res, err := driver.CompileProgram(ctx, prog, optsCopy)
		outcomeCh <- compileOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
