package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zumgugger/reformat-sub001/internal/config"
	"github.com/Zumgugger/reformat-sub001/internal/export"
	"github.com/Zumgugger/reformat-sub001/internal/item"
	"github.com/Zumgugger/reformat-sub001/internal/logging"
	"github.com/Zumgugger/reformat-sub001/internal/memory"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
	"github.com/Zumgugger/reformat-sub001/internal/scheduler"
	"github.com/Zumgugger/reformat-sub001/internal/startup"
	"github.com/Zumgugger/reformat-sub001/internal/watch"
)

var watchConv convFlags

var watchCmd = &cobra.Command{
	Use:   "watch [directories...]",
	Short: "Watch directories and convert images as they arrive",
	Long: `Watch the given directories (recursively) and convert every image that
lands in them, as soon as its file has finished being written. Conversion
settings come from the same config file, environment variables and flags
the run command uses.

Watching continues until interrupted. The output directory is never
watched, so converted files do not trigger further conversions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchConv.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if err := watchConv.apply(cmd, &cfg); err != nil {
		return err
	}
	settings, settingsActive, err := watchConv.settings()
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		first := args[0]
		if abs, absErr := filepath.Abs(first); absErr == nil {
			first = abs
		}
		outputDir = filepath.Join(filepath.Dir(first), filepath.Base(first)+"_reformat")
	}

	startup.PrintBanner()
	startup.LogSystemInfo()

	engine, cleanup, err := buildEngine(cfg.Engine)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := startup.EnsureWritableDir(outputDir); err != nil {
		return err
	}

	format, err := cfg.TargetFormat()
	if err != nil {
		return err
	}
	resize, err := cfg.Resize.Spec()
	if err != nil {
		return err
	}
	startup.LogRunSetup(engine.Name(), 1, format.String(), resize.String(), outputDir)

	runCfg := export.RunConfig{
		Format:  format,
		Resize:  resize,
		Quality: cfg.Quality(),
	}

	tok := scheduler.NewToken()
	stopSignals := bridgeSignals(tok)
	defer stopSignals()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	onItem := func(it item.Item) {
		if !monitor.WaitIfPaused() {
			return
		}
		if tok.Canceled() {
			return
		}

		itemCfg := runCfg
		if settingsActive {
			itemCfg.Settings = map[string]export.ItemSettings{it.ID: settings}
		}
		summary, err := export.ExportBatch([]item.Item{it}, itemCfg, export.BatchOptions{
			DestDir:     outputDir,
			Concurrency: 1,
			Token:       tok,
			Engine:      engine,
		})
		if err != nil {
			logging.Warn("converting %s: %v", it.Name, err)
			return
		}
		for _, r := range summary.Results {
			switch r.Status {
			case scheduler.OutcomeSucceeded:
				logging.Info("Converted %s -> %s (%d bytes)", it.Path, r.OutputPath, r.OutputBytes)
			case scheduler.OutcomeFailed:
				logging.Warn("Failed to convert %s: %s", it.Path, r.Err)
			}
			for _, w := range r.Warnings {
				logging.Warn("%s: %s", r.Name, w)
			}
		}
	}

	watcher, err := watch.New(watch.Options{
		Dirs:       args,
		Extensions: cfg.ExtensionSet(),
		IgnoreDir:  outputDir,
		Token:      tok,
		OnItem:     onItem,
	})
	if err != nil {
		return err
	}

	err = watcher.Run()

	if cfg.MetricsFile != "" {
		if dumpErr := metrics.DumpToFile(cfg.MetricsFile); dumpErr != nil {
			logging.Warn("writing metrics file: %v", dumpErr)
		}
	}
	startup.LogShutdownComplete()
	return err
}
