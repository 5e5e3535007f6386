package formatting_test

import (
	"errors"
	"testing"

	"github.com/gaslens/gaslens/pkg/formatting"
)

type sample struct {
	Chain string `json:"chain"`
	Share float64 `json:"share"`
}

func TestParseDirectJSON(t *testing.T) {
	got, err := formatting.Parse[sample](`{"chain": "base", "share": 45.2}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Chain != "base" || got.Share != 45.2 {
		t.Errorf("got %+v", got)
	}
}

func TestParseWhitespace(t *testing.T) {
	got, err := formatting.Parse[sample]("  \n{\"chain\": \"base\", \"share\": 45.2}\n  ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Chain != "base" {
		t.Errorf("chain: got %q", got.Chain)
	}
}

func TestParseJSONFence(t *testing.T) {
	content := "```json\n{\"chain\": \"arbitrum\", \"share\": 60}\n```"
	got, err := formatting.Parse[sample](content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Chain != "arbitrum" || got.Share != 60 {
		t.Errorf("got %+v", got)
	}
}

func TestParseBareFence(t *testing.T) {
	content := "```\n{\"chain\": \"base\", \"share\": 8.5}\n```"
	got, err := formatting.Parse[sample](content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Share != 8.5 {
		t.Errorf("share: got %v", got.Share)
	}
}

func TestParseFenceWithSurroundingText(t *testing.T) {
	content := "Here is the result:\n```json\n{\"chain\": \"base\", \"share\": 23.1}\n```\nLet me know if you need more."
	got, err := formatting.Parse[sample](content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Share != 23.1 {
		t.Errorf("share: got %v", got.Share)
	}
}

func TestParseFailure(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"plain text", "not json at all"},
		{"malformed json", `{"chain": }`},
		{"fence with malformed json", "```json\n{broken\n```"},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := formatting.Parse[sample](tc.content)
			if !errors.Is(err, formatting.ErrParseFailed) {
				t.Errorf("got %v, want ErrParseFailed", err)
			}
		})
	}
}

func TestParseMap(t *testing.T) {
	got, err := formatting.Parse[map[string]any](`{"defi": 45.2, "nft": 23.1}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got["defi"] != 45.2 {
		t.Errorf("defi: got %v", got["defi"])
	}
}

func TestParseSlice(t *testing.T) {
	got, err := formatting.Parse[[]string](`["base", "arbitrum"]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(got) != 2 || got[0] != "base" {
		t.Errorf("got %v", got)
	}
}
