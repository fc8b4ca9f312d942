package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/intake/internal/printer"
)

func TestTimeAgo(t *testing.T) {
	now := time.Now().UTC()

	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"1 second ago": {
			time:     now.Add(-1 * time.Second),
			expected: "1 second ago (UTC)",
		},
		"30 seconds ago": {
			time:     now.Add(-30 * time.Second),
			expected: "30 seconds ago (UTC)",
		},
		"1 minute ago": {
			time:     now.Add(-1 * time.Minute),
			expected: "1 minute ago (UTC)",
		},
		"45 minutes ago": {
			time:     now.Add(-45 * time.Minute),
			expected: "45 minutes ago (UTC)",
		},
		"5 hours ago": {
			time:     now.Add(-5 * time.Hour),
			expected: "5 hours ago (UTC)",
		},
		"1 day ago": {
			time:     now.Add(-24 * time.Hour),
			expected: "1 day ago (UTC)",
		},
		"7 days ago": {
			time:     now.Add(-7 * 24 * time.Hour),
			expected: "7 days ago (UTC)",
		},
		"future time": {
			time:     now.Add(1 * time.Hour),
			expected: "in the future (UTC)",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, printer.TimeAgo(test.time))
		})
	}
}

func TestFormatOptionalTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 4, 10, 20, 30, 0, time.FixedZone("CET", 3600))

	tests := map[string]struct {
		time     *time.Time
		expected string
	}{
		"Missing times should be a dash.": {
			time:     nil,
			expected: "-",
		},
		"Times should be formatted in UTC.": {
			time:     &ts,
			expected: "2026-03-04 09:20:30 UTC",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, printer.FormatOptionalTimestamp(test.time))
		})
	}
}

func TestProgressBar(t *testing.T) {
	tests := map[string]struct {
		percent  int
		expected string
	}{
		"Zero.":          {percent: 0, expected: "[----------]   0%"},
		"Third.":         {percent: 33, expected: "[###-------]  33%"},
		"Two thirds.":    {percent: 67, expected: "[######----]  67%"},
		"Complete.":      {percent: 100, expected: "[##########] 100%"},
		"Over complete.": {percent: 120, expected: "[##########] 100%"},
		"Negative.":      {percent: -5, expected: "[----------]   0%"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, printer.ProgressBar(test.percent))
		})
	}
}
