package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurlang/gopit/audio"
	"github.com/neurlang/gopit/cmvn"
	"github.com/neurlang/gopit/config"
	"github.com/neurlang/gopit/mask"
	"github.com/neurlang/gopit/spectrum"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:           "tofeature <config> <audio_file>...",
		Short:         "Render normalized spectrogram features of audio files",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := mask.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			a, err := spectrum.NewAnalyzer(cfg.Spectrum())
			if err != nil {
				return err
			}
			n := cmvn.NewNormalizer(nil)
			if cfg.Dataloader.MVNDict != "" {
				if n.Stats, err = cmvn.LoadStats(cfg.Dataloader.MVNDict); err != nil {
					return err
				}
			}

			for _, in := range args[1:] {
				out, err := render(cfg, a, n, in, f)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "png", "Output format: png, npy or npy16")
	return cmd
}

func render(cfg *config.Config, a *spectrum.Analyzer, n *cmvn.Normalizer, in string, f mask.Format) (string, error) {
	w, err := audio.Load(in)
	if err != nil {
		return "", err
	}
	if cfg.Output.Resample && w.SampleRate != cfg.Output.SampleRate {
		if w, err = audio.Resample(w, cfg.Output.SampleRate); err != nil {
			return "", fmt.Errorf("%s: %w", in, err)
		}
	}
	feature, err := n.Normalize(a.Analyze(w.Samples).Frames)
	if err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}

	out := in + "." + f.Ext()
	if err := mask.DumpMask(out, feature, f); err != nil {
		return "", err
	}
	return out, nil
}
