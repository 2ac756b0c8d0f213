// Package stages implements the pipeline's domain operations by shelling out
// to external tools. Each stage is a command template with {input}, {input2}
// and {output} placeholders expanded to absolute paths inside the file
// storage root.
package stages

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jonathan/transcript-pipeline/internal/pipeline"
	"github.com/jonathan/transcript-pipeline/internal/queue"
	"github.com/jonathan/transcript-pipeline/internal/storage"
)

// command holds one stage's template and the storage root its paths resolve
// against.
type command struct {
	name     string
	template string
	files    *storage.Local
}

// run expands the template and executes it. An empty template is a setup
// error that retrying cannot fix. The placeholders are expanded per argument
// after splitting, so paths containing spaces stay intact.
func (c command) run(ctx context.Context, vars map[string]string) error {
	if strings.TrimSpace(c.template) == "" {
		return queue.TerminalErr(fmt.Errorf("no command configured for stage %s", c.name))
	}

	fields := strings.Fields(c.template)
	args := make([]string, 0, len(fields))
	for _, field := range fields {
		for key, value := range vars {
			field = strings.ReplaceAll(field, "{"+key+"}", value)
		}
		args = append(args, field)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return queue.RetryableErr(fmt.Errorf("stage %s command failed (exit %d): %s", c.name, exitErr.ExitCode(), firstLine(output)))
		}
		return queue.RetryableErr(fmt.Errorf("stage %s command failed to start: %w", c.name, err))
	}
	return nil
}

func firstLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "no output"
	}
	return s
}

type converter struct{ command }

func (c converter) Convert(ctx context.Context, source, target string) error {
	return c.run(ctx, map[string]string{"input": c.files.Abs(source), "output": c.files.Abs(target)})
}

// NewConverter builds the audio conversion stage from a command template.
func NewConverter(files *storage.Local, template string) pipeline.Converter {
	return converter{command{name: pipeline.StageConvert, template: template, files: files}}
}

type diarizer struct{ command }

func (d diarizer) Diarize(ctx context.Context, audio, target string) error {
	return d.run(ctx, map[string]string{"input": d.files.Abs(audio), "output": d.files.Abs(target)})
}

// NewDiarizer builds the speaker diarization stage from a command template.
func NewDiarizer(files *storage.Local, template string) pipeline.Diarizer {
	return diarizer{command{name: pipeline.StageDiarize, template: template, files: files}}
}

type transcriber struct{ command }

func (t transcriber) Transcribe(ctx context.Context, audio, target string) error {
	return t.run(ctx, map[string]string{"input": t.files.Abs(audio), "output": t.files.Abs(target)})
}

// NewTranscriber builds the speech-to-text stage from a command template.
func NewTranscriber(files *storage.Local, template string) pipeline.Transcriber {
	return transcriber{command{name: pipeline.StageTranscribe, template: template, files: files}}
}

type merger struct{ command }

func (m merger) Merge(ctx context.Context, transcription, diarization, target string) error {
	return m.run(ctx, map[string]string{
		"input":  m.files.Abs(transcription),
		"input2": m.files.Abs(diarization),
		"output": m.files.Abs(target),
	})
}

// NewMerger builds the merge stage from a command template. The template
// receives the transcription as {input} and the diarization as {input2}.
func NewMerger(files *storage.Local, template string) pipeline.Merger {
	return merger{command{name: pipeline.StageMerge, template: template, files: files}}
}

type postprocessor struct{ command }

func (p postprocessor) Postprocess(ctx context.Context, source, target string) error {
	return p.run(ctx, map[string]string{"input": p.files.Abs(source), "output": p.files.Abs(target)})
}

// NewPostprocessor builds the final cleanup stage from a command template.
func NewPostprocessor(files *storage.Local, template string) pipeline.Postprocessor {
	return postprocessor{command{name: pipeline.StagePostprocess, template: template, files: files}}
}
