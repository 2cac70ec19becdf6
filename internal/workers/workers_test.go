package workers

import (
	"os"
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	originalEnv := os.Getenv("CONVERT_WORKERS")
	defer func() {
		if originalEnv != "" {
			os.Setenv("CONVERT_WORKERS", originalEnv)
		} else {
			os.Unsetenv("CONVERT_WORKERS")
		}
	}()

	os.Unsetenv("CONVERT_WORKERS")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "I/O-bound task (2.0x multiplier)",
			multiplier: 2.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "Mixed task (1.5x multiplier)",
			multiplier: 1.5,
			limit:      0,
			minExpect:  1,
			maxExpect:  maxInt(1, int(float64(availableCPU)*1.5)),
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      2,
			minExpect:  1,
			maxExpect:  2,
		},
		{
			name:       "Very low multiplier",
			multiplier: 0.1,
			limit:      0,
			minExpect:  1,
			maxExpect:  maxInt(1, int(float64(availableCPU)*0.1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			if got < tt.minExpect {
				t.Errorf("Count(%v, %d) = %d, expected >= %d", tt.multiplier, tt.limit, got, tt.minExpect)
			}

			if got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected <= %d", tt.multiplier, tt.limit, got, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		expected int
		invalid  bool
	}{
		{
			name:     "Valid override",
			envValue: "8",
			limit:    0,
			expected: 8,
		},
		{
			name:     "Override capped by limit",
			envValue: "20",
			limit:    10,
			expected: 10,
		},
		{
			name:     "Override below limit",
			envValue: "5",
			limit:    10,
			expected: 5,
		},
		{
			name:     "Invalid override (non-numeric)",
			envValue: "invalid",
			limit:    0,
			invalid:  true,
		},
		{
			name:     "Invalid override (zero)",
			envValue: "0",
			limit:    0,
			invalid:  true,
		},
		{
			name:     "Invalid override (negative)",
			envValue: "-5",
			limit:    0,
			invalid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("CONVERT_WORKERS", tt.envValue)
			defer os.Unsetenv("CONVERT_WORKERS")

			got := Count(1.0, tt.limit)

			if tt.invalid {
				// Should fall back to the default calculation
				if got < 1 {
					t.Errorf("Count with invalid override should return at least 1, got %d", got)
				}
			} else if got != tt.expected {
				t.Errorf("Count(1.0, %d) with CONVERT_WORKERS=%s = %d, want %d", tt.limit, tt.envValue, got, tt.expected)
			}
		})
	}
}

func TestForConversion(t *testing.T) {
	os.Unsetenv("CONVERT_WORKERS")
	defer os.Unsetenv("CONVERT_WORKERS")

	got := ForConversion()

	if got < 1 {
		t.Errorf("ForConversion() = %d, want >= 1", got)
	}
	if got > DefaultLimit {
		t.Errorf("ForConversion() = %d, should not exceed DefaultLimit=%d", got, DefaultLimit)
	}
	if cpus := runtime.GOMAXPROCS(0); cpus < DefaultLimit && got > cpus {
		t.Errorf("ForConversion() = %d, should not exceed GOMAXPROCS=%d", got, cpus)
	}
}

func TestForConversionEnvOverride(t *testing.T) {
	os.Setenv("CONVERT_WORKERS", "2")
	defer os.Unsetenv("CONVERT_WORKERS")

	if got := ForConversion(); got != 2 {
		t.Errorf("ForConversion() with CONVERT_WORKERS=2 = %d, want 2", got)
	}
}

func TestForCPU(t *testing.T) {
	os.Unsetenv("CONVERT_WORKERS")
	defer os.Unsetenv("CONVERT_WORKERS")

	tests := []struct {
		name  string
		limit int
	}{
		{"No limit", 0},
		{"With limit of 4", 4},
		{"With limit of 1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForCPU(tt.limit)

			if got < 1 {
				t.Errorf("ForCPU(%d) = %d, want >= 1", tt.limit, got)
			}
			if tt.limit > 0 && got > tt.limit {
				t.Errorf("ForCPU(%d) = %d, should not exceed limit", tt.limit, got)
			}
			if got > runtime.GOMAXPROCS(0) {
				t.Errorf("ForCPU(%d) = %d, should not exceed GOMAXPROCS", tt.limit, got)
			}
		})
	}
}

func TestForIO(t *testing.T) {
	os.Unsetenv("CONVERT_WORKERS")
	defer os.Unsetenv("CONVERT_WORKERS")

	tests := []struct {
		name  string
		limit int
	}{
		{"No limit", 0},
		{"With limit of 8", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForIO(tt.limit)

			if got < 1 {
				t.Errorf("ForIO(%d) = %d, want >= 1", tt.limit, got)
			}
			if tt.limit > 0 && got > tt.limit {
				t.Errorf("ForIO(%d) = %d, should not exceed limit", tt.limit, got)
			}
		})
	}
}

func TestCountBoundaries(t *testing.T) {
	os.Unsetenv("CONVERT_WORKERS")
	defer os.Unsetenv("CONVERT_WORKERS")

	tests := []struct {
		name       string
		multiplier float64
		limit      int
	}{
		{"Zero multiplier", 0.0, 0},
		{"Negative multiplier", -1.0, 0},
		{"Very high multiplier", 100.0, 0},
		{"Very high limit", 1.0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			if got < 1 {
				t.Errorf("Count(%v, %d) = %d, should never be less than 1", tt.multiplier, tt.limit, got)
			}
			if tt.limit > 0 && got > tt.limit {
				t.Errorf("Count(%v, %d) = %d, should not exceed limit", tt.multiplier, tt.limit, got)
			}
		})
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
