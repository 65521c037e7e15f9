package audit

import (
	"strings"
	"testing"
)

func TestBuildQueryAddsFiltersInOrder(t *testing.T) {
	query, args := buildQuery("t1", "k1", Filter{Action: "confirm_review", ActorID: "emp-1"})
	if !strings.Contains(query, "action = $3") || !strings.Contains(query, "actor_id = $4") {
		t.Fatalf("unexpected query %q", query)
	}
	if len(args) != 4 || args[2] != "confirm_review" || args[3] != "emp-1" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildQueryWithoutFilters(t *testing.T) {
	query, args := buildQuery("t1", "k1", Filter{})
	if strings.Contains(query, "action =") || len(args) != 2 {
		t.Fatalf("unexpected query %q args %v", query, args)
	}
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	if err != nil || raw != nil {
		t.Fatalf("expected nil payload, got %q %v", raw, err)
	}
	raw, err = marshalOptional(map[string]string{"status": "completed"})
	if err != nil || string(raw) != `{"status":"completed"}` {
		t.Fatalf("unexpected payload %q %v", raw, err)
	}
}
