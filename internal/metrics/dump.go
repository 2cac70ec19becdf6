package metrics

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// DumpToFile gathers the default registry and writes it to path in the
// Prometheus text exposition format. The tool has no network surface, so
// a file dump at the end of a run is the only exposition mechanism.
func DumpToFile(path string) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating metrics file %s: %w", path, err)
	}

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			f.Close()
			return fmt.Errorf("encoding metric family %s: %w", fam.GetName(), err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing metrics file %s: %w", path, err)
	}
	return nil
}
