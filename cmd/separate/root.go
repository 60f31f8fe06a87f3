package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurlang/gopit/batch"
	"github.com/neurlang/gopit/cmvn"
	"github.com/neurlang/gopit/config"
	"github.com/neurlang/gopit/logging"
	"github.com/neurlang/gopit/manifest"
	"github.com/neurlang/gopit/mask"
	"github.com/neurlang/gopit/spectrum"
)

type options struct {
	cuda       bool
	dumpDir    string
	dumpMask   bool
	maskFormat string
	logLevel   string
	logFormat  string
	logOutputs []string
	quiet      bool
}

const lockName = ".separate.lock"

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "separate <config> <model> <manifest>",
		Short:         "Separate speakers from single-channel mixtures",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], args[1], args[2])
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.cuda, "cuda", false, "Run the mask model with the CUDA execution provider")
	flags.StringVar(&opts.dumpDir, "dump-dir", "cache", "Directory for separated audio and mask dumps")
	flags.BoolVar(&opts.dumpMask, "dump-mask", false, "Also write the raw mask of every speaker")
	flags.StringVar(&opts.maskFormat, "mask-format", "", "Mask dump format: npy, npy16 or png (default from config)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "console", "Log format: console or json")
	flags.StringSliceVar(&opts.logOutputs, "log-output", nil, "Log destinations (default stderr)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the run summary")

	return cmd
}

func run(cmd *cobra.Command, opts options, configPath, modelPath, manifestPath string) error {
	logger, err := logging.New(logging.Options{
		Level:       opts.logLevel,
		Format:      opts.logFormat,
		OutputPaths: opts.logOutputs,
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	maskName := cfg.Output.MaskFormat
	if opts.maskFormat != "" {
		maskName = opts.maskFormat
	}
	maskFormat, err := mask.ParseFormat(maskName)
	if err != nil {
		return err
	}

	var stats *cmvn.Stats
	if cfg.Dataloader.MVNDict != "" {
		stats, err = cmvn.LoadStats(cfg.Dataloader.MVNDict)
		if err != nil {
			return err
		}
		if stats.Bins() != cfg.NumBins() {
			return fmt.Errorf("%w: %s has %d bins, frame length %d gives %d",
				cmvn.ErrInvalidStats, cfg.Dataloader.MVNDict, stats.Bins(), cfg.SpectrogramReader.FrameLength, cfg.NumBins())
		}
	}

	analyzer, err := spectrum.NewAnalyzer(cfg.Spectrum())
	if err != nil {
		return err
	}
	synthesizer, err := spectrum.NewSynthesizer(cfg.Spectrum())
	if err != nil {
		return err
	}

	backend := mask.BackendCPU
	if opts.cuda {
		backend = mask.BackendCUDA
	}
	model, err := mask.Open(modelPath, mask.Options{
		NumSpeakers:   cfg.Model.NumSpeakers,
		NumBins:       cfg.NumBins(),
		Backend:       backend,
		InputName:     cfg.Model.InputName,
		OutputNames:   cfg.Model.OutputNames,
		SharedLibrary: cfg.Model.ONNXLibrary,
		Timeout:       cfg.ModelTimeout(),
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer model.Close()

	entries, err := manifest.ReadFile(manifestPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.dumpDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(opts.dumpDir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock output dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("output dir %s is in use by another separate run", opts.dumpDir)
	}
	defer lock.Unlock() //nolint:errcheck

	logger.Info("starting separation",
		zap.String("manifest", manifestPath),
		zap.Int("utterances", len(entries)),
		zap.Int("speakers", model.NumSpeakers()),
		zap.Stringer("backend", backend),
		zap.String("output_dir", opts.dumpDir))

	runner := &batch.Runner{
		Analyzer:    analyzer,
		Normalizer:  cmvn.NewNormalizer(stats),
		Model:       model,
		Synthesizer: synthesizer,
		OutputDir:   opts.dumpDir,
		SampleRate:  cfg.Output.SampleRate,
		Resample:    cfg.Output.Resample,
		DumpMask:    opts.dumpMask,
		MaskFormat:  maskFormat,
		Logger:      logger,
	}

	sum, err := runner.Run(cmd.Context(), entries)
	if err != nil {
		logger.Error("separation aborted",
			zap.Int("processed", sum.Processed),
			zap.Error(err))
		return err
	}
	if sum.Skipped > 0 {
		logger.Warn("some utterances were skipped",
			zap.Int("skipped", sum.Skipped),
			zap.Strings("keys", sum.SkippedKeys))
	}
	if !opts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(sum, opts.dumpDir))
	}
	return nil
}
