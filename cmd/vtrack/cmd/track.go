package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/MeKo-Tech/vtrack/internal/config"
	"github.com/MeKo-Tech/vtrack/internal/geom"
	"github.com/MeKo-Tech/vtrack/internal/predict"
	"github.com/MeKo-Tech/vtrack/internal/render"
	"github.com/MeKo-Tech/vtrack/internal/sequence"
	"github.com/MeKo-Tech/vtrack/internal/tracker"
	"github.com/golang/geo/r3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const (
	predictorManifest = "manifest"
	predictorKalman   = "kalman"
)

// trackCmd represents the track command.
var trackCmd = &cobra.Command{
	Use:   "track <manifest.yaml>",
	Short: "Track the target through a recorded RGB-D sequence",
	Long: `Build the target model on the first frame of a sequence and track it
through the remaining frames.

The manifest names the camera, the initial window and mask, and the colour
and depth image of every frame. Frames may carry an externally predicted
world position; frames without one are predicted with a constant-velocity
Kalman filter fed by the tracker's own results.

Examples:
  vtrack track sequence.yaml
  vtrack track sequence.yaml --format text
  vtrack track sequence.yaml --output results.json --overlay-dir overlays
  vtrack track sequence.yaml --metrics --metrics-addr :9090`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if cfg.Metrics.Enabled {
			stop := serveMetrics(cfg.Metrics.Addr)
			defer stop()
		}

		report, err := runTrack(args[0], cfg)
		if err != nil {
			return err
		}

		w, closeFn, err := openOutput(cmd.OutOrStdout(), cfg.Output.File)
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()

		if cfg.Output.Format == outputFormatText {
			return writeTrackText(w, report)
		}
		return writeJSON(w, report)
	},
}

// runTrack tracks the target through every frame of the manifest at path.
func runTrack(path string, cfg *config.Config) (*trackReport, error) {
	start := time.Now()
	m, err := sequence.Load(path)
	if err != nil {
		return nil, err
	}
	pinhole, err := m.Pinhole()
	if err != nil {
		return nil, fmt.Errorf("invalid camera: %w", err)
	}
	view := camera.NewFrameView(pinhole)

	img, depth, err := m.Frame(0)
	if err != nil {
		return nil, err
	}
	view.SetFrame(img, depth)
	mask, err := m.Mask(depth.Size())
	if err != nil {
		return nil, err
	}

	trk, err := tracker.New(view, m.Window(), cfg.ToTrackerConfig())
	if err != nil {
		return nil, err
	}
	if err := trk.Build(mask); err != nil {
		return nil, fmt.Errorf("failed to build target model: %w", err)
	}

	kf := predict.NewKalman(predict.DefaultConfig())
	kf.Update(windowPosition(view, trk.Window(), trk.Depth()))

	report := &trackReport{
		Sequence: path,
		Frames:   m.Len(),
		Model: modelOutput{
			Window:    toRect(trk.Window()),
			Depth:     trk.Depth(),
			ZRange:    trk.ZRange(),
			Bandwidth: trk.Bandwidth(),
		},
	}

	overlayDir := cfg.Output.OverlayDir
	if overlayDir != "" {
		if err := os.MkdirAll(overlayDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create overlay directory: %w", err)
		}
	}

	for i := 1; i < m.Len(); i++ {
		img, depth, err := m.Frame(i)
		if err != nil {
			return nil, err
		}
		view.SetFrame(img, depth)

		estimate, err := kf.Predict()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		predicted, predictor := estimate, predictorKalman
		if p, ok := m.Predicted(i); ok {
			predicted, predictor = p, predictorManifest
		}

		if _, err := trk.Track(predicted); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		res := trk.Last()
		if !res.Occluded {
			kf.Update(windowPosition(view, res.Window, res.Depth))
		} else {
			report.Occluded++
		}
		report.Results = append(report.Results, newFrameOutput(i, res, predicted, predictor))

		if overlayDir != "" {
			out := filepath.Join(overlayDir, fmt.Sprintf("overlay_%04d.png", i))
			if err := render.Save(render.Overlay(img, res.Window, res.Occluded, res.Objects), out); err != nil {
				return nil, fmt.Errorf("frame %d: failed to save overlay: %w", i, err)
			}
		}
	}

	slog.Info("Sequence tracked",
		"sequence", path,
		"frames", m.Len(),
		"occluded", report.Occluded,
		"duration", time.Since(start))
	return report, nil
}

// windowPosition is the world position of the window centre at depth z.
func windowPosition(v camera.View, window image.Rectangle, z float64) r3.Vector {
	cx, cy := geom.Center(window)
	return v.PixelToWorld(float64(cx), float64(cy), z)
}

// serveMetrics exposes the Prometheus registry on addr until the returned
// function is called.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringP("format", "f", outputFormatJSON, "output format (json, text)")
	trackCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	trackCmd.Flags().String("overlay-dir", "", "directory to write per-frame overlay images")
	trackCmd.Flags().Float64("bandwidth", 0, "mean-shift kernel bandwidth in metres (0 = estimate)")
	trackCmd.Flags().Int("max-iterations", 10, "mean-shift iteration bound")
	trackCmd.Flags().String("overlap-metric", "size_ratio", "object matching overlap metric (size_ratio, iou)")
	trackCmd.Flags().Float64("overlap-threshold", 0.5, "object matching overlap threshold")
	trackCmd.Flags().Bool("metrics", false, "serve Prometheus metrics while tracking")
	trackCmd.Flags().String("metrics-addr", ":9090", "metrics listen address")

	bindFlags(trackCmd, []flagBinding{
		{"output.format", "format"},
		{"output.file", "output"},
		{"output.overlay_dir", "overlay-dir"},
		{"tracker.bandwidth", "bandwidth"},
		{"tracker.max_iterations", "max-iterations"},
		{"matcher.overlap_metric", "overlap-metric"},
		{"matcher.overlap_threshold", "overlap-threshold"},
		{"metrics.enabled", "metrics"},
		{"metrics.addr", "metrics-addr"},
	})
}
