package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ember/internal/buildpipeline"
	"ember/internal/ui"
)

// runBuildWithUI runs the build on a goroutine and renders its progress
// events until the channel closes.
func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	if req == nil {
		return buildpipeline.BuildResult{}, fmt.Errorf("missing build request")
	}
	events := make(chan buildpipeline.Event, 256)
	type outcome struct {
		res buildpipeline.BuildResult
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer close(events)
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		var res buildpipeline.BuildResult
		err := guard(func() error {
			var buildErr error
			res, buildErr = buildpipeline.Build(ctx, &reqCopy)
			return buildErr
		})
		done <- outcome{res, err}
	}()

	model := ui.NewProgressModel(title, buildpipeline.InputLabel(&req.CompileRequest), req.Backend.Stages(), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	out := <-done
	if uiErr != nil {
		return out.res, uiErr
	}
	return out.res, out.err
}
