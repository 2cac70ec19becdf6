package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric appears in the first dump even when its count is zero.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	statuses := []string{"succeeded", "failed", "canceled"}
	formats := []string{"jpeg", "png", "webp", "gif", "bmp", "tiff"}

	for _, s := range statuses {
		RunItemsTotal.WithLabelValues(s)
		RunProgress.WithLabelValues(s)
	}
	RunProgress.WithLabelValues("done")

	for _, f := range formats {
		PipelineDuration.WithLabelValues(f)
		EncodeDuration.WithLabelValues(f)
		EncodesTotal.WithLabelValues(f, "success")
		EncodesTotal.WithLabelValues(f, "error")
	}

	for _, o := range []string{"ok", "error"} {
		FileWrites.WithLabelValues(o)
	}

	for _, e := range []string{"create", "write", "remove", "rename", "chmod", "unknown"} {
		WatchEventsTotal.WithLabelValues(e)
	}
}
