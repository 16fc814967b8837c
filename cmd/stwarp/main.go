// Command stwarp de-warps every image in a folder through an ST map and writes JPEGs.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vearutop/stwarp"
)

type config struct {
	stPath       string
	inputFolder  string
	outputFolder string
	width        uint
	height       uint
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fail(err)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config
	cmd := &cobra.Command{
		Use:           "stwarp --st map.exr --input_folder in --output_folder out",
		Short:         "Process images with an ST map",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}
	bindFlags(cmd.Flags(), &cfg)
	for _, name := range []string{"st", "input_folder", "output_folder"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

func bindFlags(fs *pflag.FlagSet, cfg *config) {
	fs.StringVar(&cfg.stPath, "st", "", "path to the ST map (OpenEXR, or 16-bit PNG/TIFF)")
	fs.StringVar(&cfg.inputFolder, "input_folder", "", "path to the folder containing input images")
	fs.StringVar(&cfg.outputFolder, "output_folder", "", "path to the folder for saving output images")
	fs.UintVar(&cfg.width, "width", 0, "resize output to this width, 0 keeps the map width (aspect ratio kept if height is 0)")
	fs.UintVar(&cfg.height, "height", 0, "resize output to this height, 0 keeps the map height (aspect ratio kept if width is 0)")
}

func run(stdout, stderr io.Writer, cfg config) error {
	summary, err := stwarp.ConvertFolder(cfg.stPath, cfg.inputFolder, cfg.outputFolder, func(o *stwarp.Options) {
		o.Width = cfg.width
		o.Height = cfg.height
		o.OnSubmit = func(path string) {
			fmt.Fprintln(stdout, filepath.Base(path))
		}
		o.OnResult = func(res stwarp.Result) {
			if res.Status == stwarp.StatusSkipped {
				fmt.Fprintf(stderr, "skipped %s: %v\n", filepath.Base(res.Input), res.Err)
			}
		}
	})
	if summary != nil {
		fmt.Fprintf(stderr, "converted %d, skipped %d, failed %d\n", summary.Converted, summary.Skipped, summary.Failed)
	}
	return err
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
