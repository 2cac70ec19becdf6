package main

import (
	"github.com/Zumgugger/reformat-sub001/cmd"
	"github.com/Zumgugger/reformat-sub001/internal/memory"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
	"github.com/Zumgugger/reformat-sub001/internal/startup"
)

func main() {
	// Memory limits first, so everything after allocates under them.
	memory.ConfigureFromEnv()

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	cmd.Execute()
}
