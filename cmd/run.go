package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zumgugger/reformat-sub001/internal/config"
	"github.com/Zumgugger/reformat-sub001/internal/export"
	"github.com/Zumgugger/reformat-sub001/internal/item"
	"github.com/Zumgugger/reformat-sub001/internal/logging"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
	"github.com/Zumgugger/reformat-sub001/internal/scheduler"
	"github.com/Zumgugger/reformat-sub001/internal/startup"
	"github.com/Zumgugger/reformat-sub001/internal/tui"
)

var (
	runConv       convFlags
	runConcurrent int
	runNoProgress bool
)

var runCmd = &cobra.Command{
	Use:   "run [files or directories...]",
	Short: "Convert a batch of images",
	Long: `Convert the given image files, or every convertible image found in the
given directories, writing the results to a collision-free output folder.

A reformat.yaml next to the working directory supplies defaults; REFORMAT_*
environment variables override the file, and flags override both.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	runConv.register(runCmd)
	runCmd.Flags().IntVarP(&runConcurrent, "concurrency", "c", 0, "worker count (default scales with CPUs)")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "log progress lines instead of the interactive display")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = runConcurrent
	}
	if err := runConv.apply(cmd, &cfg); err != nil {
		return err
	}
	settings, settingsActive, err := runConv.settings()
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine(cfg.Engine)
	if err != nil {
		return err
	}
	defer cleanup()

	items, warnings, err := item.Scan(args, cfg.ExtensionSet())
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logging.Warn("%s", w)
	}
	if len(items) == 0 {
		return fmt.Errorf("no convertible images found")
	}

	format, err := cfg.TargetFormat()
	if err != nil {
		return err
	}
	resize, err := cfg.Resize.Spec()
	if err != nil {
		return err
	}

	runCfg := export.RunConfig{
		Format:  format,
		Resize:  resize,
		Quality: cfg.Quality(),
	}
	if settingsActive {
		runCfg.Settings = make(map[string]export.ItemSettings, len(items))
		for _, it := range items {
			runCfg.Settings[it.ID] = settings
		}
	}

	tok := scheduler.NewToken()
	stopSignals := bridgeSignals(tok)
	defer stopSignals()

	outDir := export.ResolveOutputDir(items, cfg.OutputDir, nil)
	startup.LogRunSetup(engine.Name(), cfg.Concurrency, format.String(), resize.String(), outDir)

	interactive := !runNoProgress && term.IsTerminal(int(os.Stdout.Fd()))

	var (
		updates  chan scheduler.Progress
		uiDone   chan struct{}
		program  *tea.Program
		onUpdate func(scheduler.Progress)
	)
	if interactive {
		updates = make(chan scheduler.Progress, 64)
		program = tea.NewProgram(tui.NewModel(updates, tok.Cancel))
		uiDone = make(chan struct{})
		go func() {
			defer close(uiDone)
			if _, err := program.Run(); err != nil {
				logging.Warn("progress display failed: %v", err)
			}
			for range updates {
				// Drain so the run never blocks on a dead display.
			}
		}()
		onUpdate = func(p scheduler.Progress) { updates <- p }
	} else {
		onUpdate = func(p scheduler.Progress) {
			logging.Info("progress: %d/%d done (ok %d, failed %d, canceled %d)",
				p.Done, p.Total, p.Succeeded, p.Failed, p.Canceled)
		}
	}

	started := time.Now()
	summary, err := export.ExportBatch(items, runCfg, export.BatchOptions{
		DestDir:     cfg.OutputDir,
		Concurrency: cfg.Concurrency,
		Token:       tok,
		OnProgress:  onUpdate,
		Engine:      engine,
	})
	if interactive {
		close(updates)
		<-uiDone
	}
	if err != nil {
		return err
	}

	printSummary(summary, time.Since(started))
	printFailures(summary)
	printItemWarnings(summary)

	if cfg.MetricsFile != "" {
		if err := metrics.DumpToFile(cfg.MetricsFile); err != nil {
			logging.Warn("writing metrics file: %v", err)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", summary.Failed, summary.Total)
	}
	return nil
}

// bridgeSignals routes SIGINT/SIGTERM to the token. The first signal
// cancels cooperatively; a second one force-exits.
func bridgeSignals(tok *scheduler.Token) (stop func()) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		startup.LogShutdownInitiated(sig.String())
		tok.Cancel()
		if _, ok := <-sigChan; ok {
			logging.Warn("second signal, exiting immediately")
			os.Exit(130)
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(sigChan)
	}
}

func printSummary(s export.RunSummary, elapsed time.Duration) {
	rows := []tui.SummaryRow{
		{Label: "Converted", Value: fmt.Sprintf("%d/%d", s.Succeeded, s.Total)},
		{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed)},
		{Label: "Canceled", Value: fmt.Sprintf("%d", s.Canceled)},
		{Label: "Output directory", Value: s.OutputDir},
		{Label: "Elapsed", Value: elapsed.Round(time.Millisecond).String()},
	}
	fmt.Println(tui.RenderSummary(rows))
}

var (
	failHeaderStyle = lipgloss.NewStyle().Foreground(tui.ColorError).Bold(true)
	failNameStyle   = lipgloss.NewStyle().Foreground(tui.ColorAccent)
	failDetailStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func printFailures(s export.RunSummary) {
	if s.Failed == 0 {
		return
	}
	fmt.Println(failHeaderStyle.Render("Failures:"))
	for _, r := range s.Results {
		if r.Status != scheduler.OutcomeFailed {
			continue
		}
		fmt.Printf("  %s\n", failNameStyle.Render(r.Name))
		fmt.Printf("    %s\n", failDetailStyle.Render(r.Err))
	}
	fmt.Println()
}

func printItemWarnings(s export.RunSummary) {
	for _, r := range s.Results {
		for _, w := range r.Warnings {
			logging.Warn("%s: %s", r.Name, w)
		}
	}
}
