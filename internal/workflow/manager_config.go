package workflow

import (
	"fmt"

	"quill/internal/session"
	"quill/internal/stage"
)

// ConfigureStages registers the executors the pipeline will run. All three
// are required before Start.
func (m *Manager) ConfigureStages(set StageSet) {
	stages := []pipelineStage{
		{
			name:         stage.NameDetective,
			executor:     set.Detective,
			running:      session.StageDetectiveRunning,
			startMessage: func(subject string) string { return fmt.Sprintf("Investigating @%s", subject) },
			doneMessage:  "Profile collected",
		},
		{
			name:         stage.NameCTO,
			executor:     set.CTO,
			running:      session.StageCTORunning,
			startMessage: func(string) string { return "Analyzing engineering profile" },
			doneMessage:  "Analysis complete",
		},
		{
			name:         stage.NameGhostwriter,
			executor:     set.Ghostwriter,
			running:      session.StageGhostwriterRunning,
			startMessage: func(string) string { return "Writing README" },
			doneMessage:  "README generated",
		},
	}

	m.mu.Lock()
	m.stages = stages
	m.mu.Unlock()
}

func (m *Manager) stageList() []pipelineStage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pipelineStage, len(m.stages))
	copy(out, m.stages)
	return out
}
