package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStagesListsEveryStageOnce(t *testing.T) {
	assert.Equal(t, []string{
		StageDownload,
		StageConvert,
		StageDiarize,
		StageTranscribe,
		StageMerge,
		StagePostprocess,
	}, Stages)

	seen := make(map[string]bool, len(Stages))
	for _, stage := range Stages {
		assert.False(t, seen[stage], stage)
		seen[stage] = true
	}
}
