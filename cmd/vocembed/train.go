package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/vocembed/algorithms/augment"
	"github.com/RyanBlaney/vocembed/algorithms/spectral"
	"github.com/RyanBlaney/vocembed/algorithms/stats"
	"github.com/RyanBlaney/vocembed/logging"
	"github.com/RyanBlaney/vocembed/trainer"
	"github.com/RyanBlaney/vocembed/trainer/config"
	"github.com/RyanBlaney/vocembed/transcode"
)

var (
	trainConfigPath   string
	trainManifestPath string
	trainCheckpoint   string
	trainEpochs       int
	trainResume       bool
	trainVerbose      bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train speaker embeddings from a segment manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain()
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainConfigPath, "config", "config.yml", "experiment configuration file")
	trainCmd.Flags().StringVar(&trainManifestPath, "manifest", "manifest.yml", "labeled segment manifest")
	trainCmd.Flags().StringVar(&trainCheckpoint, "checkpoint", "", "directory for scheduler checkpoints")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 1000, "epoch budget")
	trainCmd.Flags().BoolVar(&trainResume, "resume", false, "resume the schedule from the checkpoint directory")
	trainCmd.Flags().BoolVar(&trainVerbose, "verbose", false, "per-step debug logging")
	rootCmd.AddCommand(trainCmd)
}

func runTrain() error {
	if trainVerbose {
		logging.SetLevel(logging.DebugLevel)
	}

	cfg, err := config.Load(trainConfigPath)
	if err != nil {
		return err
	}

	segments, err := trainer.LoadManifest(trainManifestPath)
	if err != nil {
		return err
	}

	index := trainer.NewSegmentIndex(segments, trainer.IndexParams{
		MinDuration:      cfg.Data.MinDuration,
		MaxDuration:      cfg.Data.MaxDuration,
		LabelMinDuration: cfg.Data.LabelMinDuration,
	})
	logging.Info("segment index built", logging.Fields{
		"segments":        index.NumSegments(),
		"eligible_labels": len(index.EligibleLabels()),
	})

	sampler, err := trainer.NewBatchSampler(index, trainer.SamplerParams{
		PerLabel: cfg.Approach.PerLabel,
		PerFold:  cfg.Approach.PerFold,
		Mode:     trainer.SamplingMode(cfg.Approach.Sampling),
		Seed:     cfg.Data.Seed,
	})
	if err != nil {
		return err
	}

	scheduler, err := buildScheduler(cfg)
	if err != nil {
		return err
	}

	metric, ok := stats.ParseDistanceMetric(cfg.Approach.Metric)
	if !ok {
		return fmt.Errorf("unknown metric: %s", cfg.Approach.Metric)
	}
	clamp, ok := trainer.ParseClampKind(cfg.Approach.Clamp)
	if !ok {
		return fmt.Errorf("unknown clamp: %s", cfg.Approach.Clamp)
	}

	extractor := newSegmentExtractor(cfg)
	augmenter := augment.NewNoiseAugmenter(cfg.Data.SNRMin, cfg.Data.SNRMax, cfg.Data.Seed)

	t, err := trainer.NewTrainer(
		sampler,
		extractor,
		augmenter,
		newMeanPoolEmbedder(),
		newLoggingOptimizer(),
		scheduler,
		trainer.Params{
			Epochs:        trainEpochs,
			Parallel:      cfg.Data.Parallel,
			Metric:        metric,
			Loss:          trainer.LossParams{Margin: cfg.Approach.Margin, Clamp: clamp},
			CheckpointDir: trainCheckpoint,
		},
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return t.Run(ctx)
}

// buildScheduler creates a fresh schedule or resumes the persisted one
func buildScheduler(cfg *config.ExperimentConfig) (*trainer.CyclicScheduler, error) {
	curve := trainer.CurveForName(cfg.Scheduler.Curve)

	if trainResume {
		if trainCheckpoint == "" {
			return nil, fmt.Errorf("--resume requires --checkpoint")
		}
		state, err := trainer.LoadSchedulerState(filepath.Join(trainCheckpoint, "scheduler.yml"))
		if err != nil {
			return nil, err
		}
		logging.Info("resuming schedule", logging.Fields{
			"epoch":          state.CurrentEpoch,
			"cycle_position": state.CyclePosition,
		})
		return trainer.ResumeCyclicScheduler(state, curve), nil
	}

	if trainCheckpoint != "" {
		if err := os.MkdirAll(trainCheckpoint, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}
	return trainer.NewCyclicScheduler(cfg.Scheduler.BaseLR, cfg.Scheduler.EpochsPerCycle, curve), nil
}

// segmentExtractor decodes a segment span via ffmpeg and computes MFCC
// features with the configured flag set
type segmentExtractor struct {
	decoder *transcode.Decoder
	mfcc    *spectral.MFCC
}

func newSegmentExtractor(cfg *config.ExperimentConfig) *segmentExtractor {
	decoderCfg := transcode.DefaultDecoderConfig()
	decoderCfg.TargetSampleRate = cfg.FeatureExtraction.SampleRate

	return &segmentExtractor{
		decoder: transcode.NewDecoder(decoderCfg),
		mfcc: spectral.NewMFCCWithParams(cfg.FeatureExtraction.SampleRate, spectral.MFCCParams{
			NumCoefficients:  cfg.FeatureExtraction.Coefficients,
			Energy:           cfg.FeatureExtraction.Energy,
			DeltaEnergy:      cfg.FeatureExtraction.DeltaEnergy,
			DeltaDeltaEnergy: cfg.FeatureExtraction.DeltaDeltaEnergy,
			Deltas:           cfg.FeatureExtraction.Deltas,
			DeltaDeltas:      cfg.FeatureExtraction.DeltaDeltas,
		}),
	}
}

func (e *segmentExtractor) Extract(seg trainer.Segment) ([][]float64, error) {
	audio, err := e.decoder.DecodeSegment(context.Background(), seg.FileID, seg.Start, seg.End)
	if err != nil {
		return nil, err
	}
	return e.mfcc.Extract(audio.PCM)
}
