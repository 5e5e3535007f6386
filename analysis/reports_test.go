package analysis_test

import (
	"testing"

	"github.com/gaslens/gaslens/analysis"
)

func TestTopCategoriesSelection(t *testing.T) {
	breakdown := map[string]float64{
		"defi":   45.2,
		"nft":    23.1,
		"cefi":   15.2,
		"social": 8.5,
	}

	got := analysis.TopCategories(breakdown, 2)
	want := []string{"defi", "nft"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("TopCategories = %v, want %v", got, want)
	}
}

func TestTopCategoriesTieBreaksLexically(t *testing.T) {
	breakdown := map[string]float64{
		"nft":  40.0,
		"defi": 40.0,
		"cefi": 20.0,
	}

	got := analysis.TopCategories(breakdown, 2)
	if got[0] != "defi" || got[1] != "nft" {
		t.Errorf("TopCategories = %v, want [defi nft]", got)
	}
}

func TestTopCategoriesCountExceedsEntries(t *testing.T) {
	breakdown := map[string]float64{"defi": 100.0}

	got := analysis.TopCategories(breakdown, 5)
	if len(got) != 1 || got[0] != "defi" {
		t.Errorf("TopCategories = %v, want [defi]", got)
	}
}

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		input string
		want  analysis.Timeframe
		valid bool
	}{
		{"7d", analysis.Timeframe7d, true},
		{"14d", analysis.Timeframe14d, true},
		{"historical", analysis.TimeframeHistorical, true},
		{"30d", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, err := analysis.ParseTimeframe(tc.input)
		if tc.valid {
			if err != nil {
				t.Errorf("ParseTimeframe(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseTimeframe(%q) = %q, want %q", tc.input, got, tc.want)
			}
		} else if err == nil {
			t.Errorf("ParseTimeframe(%q) accepted invalid input", tc.input)
		}
	}
}

func TestTimeframeHistorical(t *testing.T) {
	if analysis.Timeframe7d.Historical() {
		t.Error("7d should not be historical")
	}
	if !analysis.TimeframeHistorical.Historical() {
		t.Error("historical should be historical")
	}
}
