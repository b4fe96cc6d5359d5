package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"census/internal/driver"
	"census/internal/ui"
)

type ingestOutcome struct {
	result *driver.DirResult
	err    error
}

// runIngestWithUI runs a directory ingest behind the progress UI. The
// ingest itself runs in a goroutine publishing events; the Bubble Tea
// program quits when the event channel closes.
func runIngestWithUI(ctx context.Context, title string, files []string, dir string, opts driver.Options) (*driver.DirResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan ingestOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.IngestDir(ctx, dir, optsCopy)
		outcomeCh <- ingestOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
