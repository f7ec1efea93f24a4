package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"imgsweep/internal/dedupe"
	"imgsweep/internal/logging"
	"imgsweep/internal/processor"
	"imgsweep/internal/tui"
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Report duplicates without copying or modifying files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logOut, closeLog, err := logDestination(false)
		if err != nil {
			return err
		}
		defer closeLog()

		summary, reports, err := processor.Run(ctx, processor.Options{
			Mode:     processor.ModeScan,
			InputDir: args[0],
			Log:      logging.New(logOut, verbose),
		}, nil)
		if err != nil {
			return err
		}

		for _, report := range reports {
			fmt.Fprintln(os.Stdout, formatReport(report))
		}
		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, tui.RenderSummary([]tui.SummaryRow{
			{Label: "Images found", Value: fmt.Sprintf("%d", summary.Total)},
			{Label: "Would remove", Value: fmt.Sprintf("%d", summary.Duplicates())},
			{Label: "Would keep", Value: fmt.Sprintf("%d", summary.Unique)},
			{Label: "Unreadable", Value: fmt.Sprintf("%d", summary.Skipped), Warn: summary.Skipped > 0},
		}))
		return nil
	},
}

func formatReport(r processor.Report) string {
	name := scanFileStyle.Render(filepath.Base(r.Path))
	match := filepath.Base(r.Match)

	switch r.Outcome {
	case dedupe.Unique:
		return fmt.Sprintf("%s %s", name, scanKeepStyle.Render("keep"))
	case dedupe.ExactDuplicate:
		return fmt.Sprintf("%s %s %s", name, scanDropStyle.Render("remove"),
			scanDimStyle.Render("identical to "+match))
	case dedupe.NearDuplicateLoser:
		return fmt.Sprintf("%s %s %s", name, scanDropStyle.Render("remove"),
			scanDimStyle.Render(fmt.Sprintf("looks like %s (SSIM=%.2f)", match, r.Similarity)))
	case dedupe.NearDuplicateWinner:
		return fmt.Sprintf("%s %s %s", name, scanKeepStyle.Render("keep"),
			scanDimStyle.Render(fmt.Sprintf("replaces %s (SSIM=%.2f)", match, r.Similarity)))
	default:
		return fmt.Sprintf("%s %s %s", name, scanWarnStyle.Render("unreadable"),
			scanDimStyle.Render(fmt.Sprint(r.Err)))
	}
}

var (
	scanFileStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanKeepStyle = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	scanDropStyle = lipgloss.NewStyle().Foreground(tui.ColorError)
	scanWarnStyle = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	scanDimStyle  = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(scanCmd)
}
