package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/vtrack/internal/testutil"
	"github.com/MeKo-Tech/vtrack/internal/testutil/synth"
	"github.com/MeKo-Tech/vtrack/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackArgs(manifest string, extra ...string) []string {
	return append([]string{"track", manifest}, extra...)
}

func runTrackCommand(t *testing.T, args []string) trackReport {
	t.Helper()
	output, err := execute(t, args...)
	require.NoError(t, err)

	var report trackReport
	require.NoError(t, json.Unmarshal([]byte(output), &report), output)
	return report
}

func TestTrack_ManifestPredictions(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path, err := synth.Write(filepath.Join(dir, "seq"), synth.Options{Frames: 3, Step: 3, Predictions: true})
	require.NoError(t, err)
	overlays := filepath.Join(dir, "overlays")

	report := runTrackCommand(t, trackArgs(path, "--overlay-dir", overlays))

	assert.Equal(t, 3, report.Frames)
	assert.Zero(t, report.Occluded)
	assert.InDelta(t, 1.5, report.Model.Depth, 1e-9)
	assert.InDelta(t, 0.02, report.Model.ZRange, 1e-9)
	require.Len(t, report.Results, 2)

	for i, r := range report.Results {
		assert.Equal(t, i+1, r.Frame)
		assert.Equal(t, tracker.StateTracking, r.State)
		assert.Equal(t, predictorManifest, r.Predictor)
		assert.Positive(t, r.Weight)
		assert.NotEmpty(t, r.Objects)
	}
	first := report.Results[0].Window
	assert.InDelta(t, 83, first[0]+first[2]/2, 1)

	for _, name := range []string{"overlay_0001.png", "overlay_0002.png"} {
		assert.FileExists(t, filepath.Join(overlays, name))
	}
}

func TestTrack_KalmanFallback(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path, err := synth.Write(dir, synth.Options{Frames: 3})
	require.NoError(t, err)

	report := runTrackCommand(t, trackArgs(path))
	require.Len(t, report.Results, 2)
	for _, r := range report.Results {
		assert.Equal(t, predictorKalman, r.Predictor)
		assert.Equal(t, tracker.StateTracking, r.State)
		assert.InDelta(t, 1.5, r.Predicted[2], 0.05)
	}
}

func TestTrack_Occlusion(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path, err := synth.Write(dir, synth.Options{Frames: 3, OccludeFrom: 2, Predictions: true})
	require.NoError(t, err)

	report := runTrackCommand(t, trackArgs(path, "--bandwidth", "1.0"))
	require.Len(t, report.Results, 2)
	assert.Equal(t, tracker.StateTracking, report.Results[0].State)

	occluded := report.Results[1]
	assert.Equal(t, tracker.StateOccluded, occluded.State)
	assert.Zero(t, occluded.Weight)
	assert.Equal(t, 1, report.Occluded)
	assert.Equal(t, 80, occluded.Window[0]+occluded.Window[2]/2)

	var types []string
	for _, o := range occluded.Objects {
		types = append(types, o.Type)
	}
	assert.Contains(t, types, "occluder")
}

func TestTrack_TextOutputToFile(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path, err := synth.Write(filepath.Join(dir, "seq"), synth.Options{Frames: 2, Predictions: true})
	require.NoError(t, err)
	outFile := filepath.Join(dir, "out", "results.txt")

	args := trackArgs(path)
	args = append(args, "--format", "text", "--output", outFile)
	output, err := execute(t, args...)
	require.NoError(t, err)
	assert.Empty(t, output)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "frame 1: tracking")
	assert.Contains(t, string(data), "tracked 2 frames, 0 occluded")
}

func TestTrack_Errors(t *testing.T) {
	_, err := execute(t, "track")
	assert.Error(t, err)

	_, err = execute(t, trackArgs(filepath.Join(testutil.CreateTempDir(t), "missing.yaml"))...)
	assert.ErrorContains(t, err, "failed to read manifest")

	dir := testutil.CreateTempDir(t)
	path, err := synth.Write(dir, synth.Options{Frames: 2})
	require.NoError(t, err)
	_, err = execute(t, trackArgs(path, "--overlap-metric", "dice")...)
	assert.ErrorContains(t, err, "unknown overlap metric")
}
