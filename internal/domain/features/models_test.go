package features

import "testing"

func TestSnapshotPolicyPrecedence(t *testing.T) {
	cases := []struct {
		snapshot Snapshot
		want     Policy
	}{
		{Snapshot{}, PolicyNormal},
		{Snapshot{UseGoalWeight: true}, PolicyGoalWeight},
		{Snapshot{UseActualValues: true}, PolicyActualVsTarget},
		{Snapshot{UseGoalWeight: true, UseActualValues: true}, PolicyActualVsTarget},
	}
	for _, tc := range cases {
		if got := tc.snapshot.Policy(); got != tc.want {
			t.Fatalf("%+v: expected %q, got %q", tc.snapshot, tc.want, got)
		}
	}
}

func TestSetSnapshotPerPeriod(t *testing.T) {
	set := Set{
		Quarterly: Flags{UseGoalWeight: true},
		Yearly:    Flags{UseActualValues: true, EnableEmployeeSelfRating: true},
	}
	quarterly := set.Snapshot(PeriodQuarterly)
	if quarterly.Policy() != PolicyGoalWeight || quarterly.SelfRatingEnabled || quarterly.Defaulted {
		t.Fatalf("unexpected quarterly snapshot %+v", quarterly)
	}
	yearly := set.Snapshot(PeriodYearly)
	if yearly.Policy() != PolicyActualVsTarget || !yearly.SelfRatingEnabled {
		t.Fatalf("unexpected yearly snapshot %+v", yearly)
	}
	unknown := set.Snapshot(PeriodType("monthly"))
	if unknown.Policy() != PolicyNormal || !unknown.SelfRatingEnabled || !unknown.Defaulted {
		t.Fatalf("expected default snapshot for unknown period, got %+v", unknown)
	}
}

func TestParsePeriodType(t *testing.T) {
	if p, ok := ParsePeriodType("yearly"); !ok || p != PeriodYearly {
		t.Fatalf("expected yearly, got %q %v", p, ok)
	}
	if _, ok := ParsePeriodType("weekly"); ok {
		t.Fatalf("expected weekly to be rejected")
	}
}
