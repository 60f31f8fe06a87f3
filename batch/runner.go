package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurlang/gopit/audio"
	"github.com/neurlang/gopit/cmvn"
	"github.com/neurlang/gopit/manifest"
	"github.com/neurlang/gopit/mask"
	"github.com/neurlang/gopit/spectrum"
)

// Stage names a step of per-utterance processing.
type Stage string

const (
	StageLoading      Stage = "loading"
	StageAnalyzing    Stage = "analyzing"
	StageNormalizing  Stage = "normalizing"
	StagePredicting   Stage = "predicting"
	StageSeparating   Stage = "separating"
	StageSynthesizing Stage = "synthesizing"
	StageWriting      Stage = "writing"
)

// StageError ties a failure to the utterance and stage it happened in.
type StageError struct {
	Key   string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("utterance %s: %s: %v", e.Key, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Summary reports the outcome of a run.
type Summary struct {
	RunID       string
	Processed   int
	Skipped     int
	SkippedKeys []string
}

// Runner holds the long-lived, read-only collaborators of a batch.
type Runner struct {
	Analyzer    *spectrum.Analyzer
	Normalizer  *cmvn.Normalizer
	Model       mask.Model
	Synthesizer *spectrum.Synthesizer

	OutputDir  string
	SampleRate int
	// Resample converts sources to SampleRate before analysis. Otherwise
	// the source samples are used as they are and only the output header
	// carries SampleRate.
	Resample bool

	DumpMask   bool
	MaskFormat mask.Format

	Logger *zap.Logger
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Run processes entries in order. A missing source file is logged and
// skipped. Any other error aborts the run and is returned together with
// the summary of what completed before it.
func (r *Runner) Run(ctx context.Context, entries []manifest.Entry) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	log := r.logger().With(zap.String("run_id", sum.RunID))

	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		err := r.process(ctx, log, e)
		if errors.Is(err, audio.ErrNotFound) {
			log.Warn("source missing, skipping utterance",
				zap.String("key", e.Key),
				zap.String("path", e.Path))
			sum.Skipped++
			sum.SkippedKeys = append(sum.SkippedKeys, e.Key)
			continue
		}
		if err != nil {
			return sum, err
		}
		sum.Processed++
	}

	log.Info("processed utterances",
		zap.Int("processed", sum.Processed),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("elapsed", time.Since(start)))
	return sum, nil
}

// Process separates a single utterance and writes one file per speaker.
func (r *Runner) Process(ctx context.Context, e manifest.Entry) error {
	return r.process(ctx, r.logger(), e)
}

func (r *Runner) process(ctx context.Context, log *zap.Logger, e manifest.Entry) error {
	fail := func(stage Stage, err error) error {
		return &StageError{Key: e.Key, Stage: stage, Err: err}
	}
	log = log.With(zap.String("key", e.Key))

	wave, err := audio.Load(e.Path)
	if err != nil {
		return fail(StageLoading, err)
	}
	if wave.SampleRate != r.SampleRate {
		if r.Resample {
			if wave, err = audio.Resample(wave, r.SampleRate); err != nil {
				return fail(StageLoading, err)
			}
		} else {
			log.Debug("source sample rate differs from output rate",
				zap.Int("source", wave.SampleRate),
				zap.Int("output", r.SampleRate))
		}
	}

	spec := r.Analyzer.Analyze(wave.Samples)
	frames, bins := spec.Shape()
	if frames == 0 {
		return fail(StageAnalyzing, fmt.Errorf("%w: no frames", spectrum.ErrShape))
	}

	feature, err := r.Normalizer.Normalize(spec.Frames)
	if err != nil {
		return fail(StageNormalizing, err)
	}

	masks, err := r.Model.Predict(ctx, feature)
	if err != nil {
		return fail(StagePredicting, err)
	}
	if err := mask.Validate(masks, r.Model.NumSpeakers(), frames, bins); err != nil {
		return fail(StagePredicting, err)
	}

	separated, err := mask.Apply(spec.Frames, masks)
	if err != nil {
		return fail(StageSeparating, err)
	}

	for k, s := range separated {
		y, err := r.Synthesizer.Synthesize(s, spec.NumSamples, spec.Peak)
		if err != nil {
			return fail(StageSynthesizing, err)
		}

		name := OutputName(e.Key, k+1, "wav")
		if err := audio.SaveWav(filepath.Join(r.OutputDir, name), y, r.SampleRate); err != nil {
			return fail(StageWriting, err)
		}

		if r.DumpMask {
			maskName := OutputName(e.Key, k+1, r.MaskFormat.Ext())
			if err := mask.DumpMask(filepath.Join(r.OutputDir, maskName), masks[k], r.MaskFormat); err != nil {
				return fail(StageWriting, err)
			}
		}
	}

	log.Debug("utterance separated",
		zap.Int("frames", frames),
		zap.Int("samples", spec.NumSamples),
		zap.Int("speakers", len(separated)))
	return nil
}

// OutputName returns "{key}.spk{speaker}.{ext}"; speaker is 1-based.
func OutputName(key string, speaker int, ext string) string {
	return fmt.Sprintf("%s.spk%d.%s", key, speaker, ext)
}
