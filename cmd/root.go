package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"imgsweep/internal/logging"
	"imgsweep/internal/processor"
	"imgsweep/internal/tui"
)

const defaultInputDir = "image_folder"

var (
	sweepOutputDir      string
	sweepKeepUnreadable bool
	sweepWorkers        int
	sweepTUI            bool
	logFilePath         string
	verbose             bool
)

var rootCmd = &cobra.Command{
	Use:   "imgsweep [flags] [folder]",
	Short: "Remove duplicate images and shrink the rest",
	Long: "imgsweep copies the images in a folder to a working directory, removes exact and visual\n" +
		"duplicates (keeping the wider copy), then resizes survivors to at most 800px wide.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := defaultInputDir
		if len(args) == 1 {
			input = args[0]
		}

		outputDir := sweepOutputDir
		if outputDir == "" {
			outputDir = processor.DefaultOutputDir(input)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		logOut, closeLog, err := logDestination(sweepTUI)
		if err != nil {
			return err
		}
		defer closeLog()
		log := logging.New(logOut, verbose)

		opts := processor.Options{
			Mode:           processor.ModeSweep,
			InputDir:       input,
			OutputDir:      outputDir,
			KeepUnreadable: sweepKeepUnreadable,
			Workers:        sweepWorkers,
			Log:            log,
		}

		log.WithFields(logrus.Fields{"input": input, "output": outputDir}).Info("starting")

		var summary processor.Summary
		if sweepTUI {
			summary, _, err = runWithProgress(ctx, cancel, opts)
		} else {
			summary, _, err = processor.Run(ctx, opts, nil)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.SweepRows(summary)))
		outPath := outputDir
		if abs, absErr := filepath.Abs(outputDir); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(os.Stdout, "Results written to: %s\n", outPath)
		return nil
	},
}

// runWithProgress drives the pipeline while the bubbletea model renders its
// progress updates.
func runWithProgress(ctx context.Context, cancel context.CancelFunc, opts processor.Options) (processor.Summary, []processor.Report, error) {
	updates := make(chan processor.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel(updates, cancel))

	uiDone := make(chan struct{})
	go func() {
		_, _ = program.Run()
		close(uiDone)
	}()

	summary, reports, err := processor.Run(ctx, opts, updates)
	close(updates)
	<-uiDone
	return summary, reports, err
}

// logDestination picks where log lines go. The progress UI owns the terminal,
// so with it enabled lines go to the log file instead of stderr.
func logDestination(withTUI bool) (io.Writer, func(), error) {
	path := logFilePath
	if path == "" && withTUI {
		path = "imgsweep.log"
	}
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "append log lines to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "include debug log lines")

	rootCmd.Flags().StringVarP(&sweepOutputDir, "output", "o", "", "working directory for results (default <folder>/output)")
	rootCmd.Flags().BoolVar(&sweepKeepUnreadable, "keep-unreadable", false, "leave files that fail to decode in the output untouched")
	rootCmd.Flags().IntVar(&sweepWorkers, "workers", 1, "parallel workers for the resize pass")
	rootCmd.Flags().BoolVar(&sweepTUI, "tui", false, "show a live progress view (logs go to --log-file, default imgsweep.log)")
}
