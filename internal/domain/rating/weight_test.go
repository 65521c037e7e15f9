package rating

import (
	"encoding/json"
	"math"
	"testing"
)

func TestResolveWeightEquivalentForms(t *testing.T) {
	forms := []Weight{TextWeight("40%"), NumberWeight(0.4), NumberWeight(40), TextWeight("0.4"), TextWeight(" 40 % "), TextWeight("40")}
	for _, w := range forms {
		if got := ResolveWeight(w); got != 0.4 {
			t.Fatalf("expected %q to resolve to 0.4, got %v", w.String(), got)
		}
	}
}

func TestResolveWeightEdgeCases(t *testing.T) {
	cases := []struct {
		weight Weight
		want   float64
	}{
		{Weight{}, 0},
		{TextWeight(""), 0},
		{TextWeight("heavy"), 0},
		{TextWeight("%"), 0},
		{TextWeight("150%"), 1},
		{TextWeight("-20%"), 0},
		{NumberWeight(-3), 0},
		{NumberWeight(1), 1},
		{NumberWeight(250), 1},
		{NumberWeight(math.NaN()), 0},
		{NumberWeight(math.Inf(1)), 0},
		{TextWeight("NaN"), 0},
	}
	for _, tc := range cases {
		if got := ResolveWeight(tc.weight); got != tc.want {
			t.Fatalf("ResolveWeight(%+v) = %v, want %v", tc.weight, got, tc.want)
		}
	}
}

func TestWeightJSON(t *testing.T) {
	var item struct {
		GoalWeight Weight `json:"goalWeight"`
	}
	inputs := map[string]Weight{
		`{"goalWeight":"40%"}`: TextWeight("40%"),
		`{"goalWeight":40}`:    NumberWeight(40),
		`{"goalWeight":null}`:  {},
		`{"goalWeight":true}`:  {},
		`{}`:                   {},
	}
	for input, want := range inputs {
		item.GoalWeight = Weight{}
		if err := json.Unmarshal([]byte(input), &item); err != nil {
			t.Fatalf("unmarshal %s: %v", input, err)
		}
		if item.GoalWeight != want {
			t.Fatalf("unmarshal %s: got %+v, want %+v", input, item.GoalWeight, want)
		}
	}

	out, err := json.Marshal([]Weight{TextWeight("50%"), NumberWeight(0.25), {}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `["50%",0.25,null]` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestParseStoredWeight(t *testing.T) {
	if w := ParseStoredWeight(nil); w.Kind != WeightAbsent {
		t.Fatalf("expected absent weight, got %+v", w)
	}
	raw := "25%"
	if got := ResolveWeight(ParseStoredWeight(&raw)); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}
