package support

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/vtrack/internal/testutil/synth"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) writeSequence(name string, opts synth.Options) error {
	path, err := synth.Write(filepath.Join(testCtx.TempDir, name), opts)
	if err != nil {
		return fmt.Errorf("failed to write sequence %s: %w", name, err)
	}
	testCtx.Sequences[name] = path
	return nil
}

// aStaticSequence writes a sequence whose target does not move.
func (testCtx *TestContext) aStaticSequence(name string, frames int) error {
	return testCtx.writeSequence(name, synth.Options{Frames: frames, Predictions: true})
}

// aMovingSequence writes a sequence whose target moves right each frame.
func (testCtx *TestContext) aMovingSequence(name string, frames, step int) error {
	return testCtx.writeSequence(name, synth.Options{Frames: frames, Step: step, Predictions: true})
}

// aSequenceWithoutPredictions writes a sequence without predicted positions.
func (testCtx *TestContext) aSequenceWithoutPredictions(name string, frames int) error {
	return testCtx.writeSequence(name, synth.Options{Frames: frames})
}

// anOccludedSequence writes a static sequence hidden from frame from on.
func (testCtx *TestContext) anOccludedSequence(name string, frames, from int) error {
	return testCtx.writeSequence(name, synth.Options{Frames: frames, OccludeFrom: from, Predictions: true})
}

// aConfigFileWith writes vtrack.yaml with the given content to the temp dir.
func (testCtx *TestContext) aConfigFileWith(content *godog.DocString) error {
	path := testCtx.TempPath("vtrack.yaml")
	if err := os.WriteFile(path, []byte(content.Content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RegisterSequenceSteps registers the synthetic sequence steps.
func (testCtx *TestContext) RegisterSequenceSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a static sequence "([^"]*)" with (\d+) frames$`, testCtx.aStaticSequence)
	sc.Step(`^a moving sequence "([^"]*)" with (\d+) frames and a step of (\d+) pixels$`, testCtx.aMovingSequence)
	sc.Step(`^a sequence "([^"]*)" with (\d+) frames and no predictions$`, testCtx.aSequenceWithoutPredictions)
	sc.Step(`^an occluded sequence "([^"]*)" with (\d+) frames hidden from frame (\d+)$`, testCtx.anOccludedSequence)
	sc.Step(`^a config file with:$`, testCtx.aConfigFileWith)
}
