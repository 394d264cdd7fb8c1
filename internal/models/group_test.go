package models

import (
	"encoding/json"
	"testing"
)

func TestSimilarityGroup_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantValid bool
		wantCount int
	}{
		{"strings", `["a","b"]`, true, 2},
		{"empty array", `[]`, true, 0},
		{"mixed values", `["a", {"k":1}, 3]`, true, 3},
		{"object", `{"a":1}`, false, 0},
		{"string", `"not a group"`, false, 0},
		{"null", `null`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g SimilarityGroup
			if err := json.Unmarshal([]byte(tt.raw), &g); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if g.Valid != tt.wantValid || g.Count() != tt.wantCount {
				t.Errorf("got valid=%v count=%d, want valid=%v count=%d", g.Valid, g.Count(), tt.wantValid, tt.wantCount)
			}
		})
	}
}

func TestSimilarityGroup_InsideArray(t *testing.T) {
	var groups []SimilarityGroup
	if err := json.Unmarshal([]byte(`[["a"], 7, ["b","c"]]`), &groups); err != nil {
		t.Fatal(err)
	}
	if len(groups) != 3 {
		t.Fatalf("len = %d, want 3", len(groups))
	}
	if groups[1].Valid {
		t.Error("non-array entry should be invalid")
	}
	if groups[2].Count() != 2 {
		t.Errorf("third group count = %d, want 2", groups[2].Count())
	}
}

func TestItem_Text(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"The cat sat."`, "The cat sat."},
		{`{ "text" : "x",  "n": 1 }`, `{"text":"x","n":1}`},
		{`[1, 2]`, `[1,2]`},
		{`42`, `42`},
		{`null`, `null`},
	}
	for _, tt := range tests {
		if got := Item(tt.raw).Text(); got != tt.want {
			t.Errorf("Item(%s).Text() = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSimilarityGroup_MarshalJSON(t *testing.T) {
	b, err := json.Marshal([]SimilarityGroup{NewGroup("a", "b"), {}, {Valid: true}})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `[["a","b"],null,[]]`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}
