// Package pipeline orchestrates the transcription stage graph:
//
//	download -> convert -> (diarize ∥ transcribe) -> merge -> postprocess
//
// Stage executors run in worker processes; stage result handlers run in the
// subscriber process and schedule each successor only after the previous
// stage's record mutation is persisted.
package pipeline

import "context"

// Stage names. These are also the task type names on the queue and the
// routing keys of the completion events.
const (
	StageDownload    = "download"
	StageConvert     = "convert"
	StageDiarize     = "diarize"
	StageTranscribe  = "transcribe"
	StageMerge       = "merge"
	StagePostprocess = "postprocess"
)

// Stages lists all stage names in graph order.
var Stages = []string{StageDownload, StageConvert, StageDiarize, StageTranscribe, StageMerge, StagePostprocess}

// The stage domain operations are external collaborators. Paths are relative
// to the shared file storage.

// Converter normalizes the original audio into the pipeline's wav format.
type Converter interface {
	Convert(ctx context.Context, source, target string) error
}

// Diarizer splits the audio into speaker-attributed segments.
type Diarizer interface {
	Diarize(ctx context.Context, audio, target string) error
}

// Transcriber produces the raw speech-to-text output.
type Transcriber interface {
	Transcribe(ctx context.Context, audio, target string) error
}

// Merger combines transcription and diarization into one attributed text.
type Merger interface {
	Merge(ctx context.Context, transcription, diarization, target string) error
}

// Postprocessor cleans the merged transcript up for delivery.
type Postprocessor interface {
	Postprocess(ctx context.Context, source, target string) error
}
