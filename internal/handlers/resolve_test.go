package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/kairoshq/kairos/internal/people"
)

func TestResolveEndpoint(t *testing.T) {
	resolver := &stubResolver{batch: people.BatchResult{
		Resolved: []people.Identity{{ID: "u-1", DisplayName: "Ivan Petrenko", Mail: "ivan@corp.ua"}},
		Ambiguous: []people.AmbiguousName{{
			Term: "Олена",
			Candidates: []people.Identity{
				{ID: "u-2", DisplayName: "Олена Коваль"},
				{ID: "u-3", DisplayName: "Олена Шевчук"},
			},
		}},
	}}
	h := NewResolveHandler(resolver, slog.Default())

	rec, err := postJSON(h.Resolve, "/api/participants/resolve", `{"names":["Ivan","Олена"],"requester_id":"req-1"}`)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var batch people.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(batch.Resolved) != 1 || batch.Resolved[0].DisplayName != "Ivan Petrenko" {
		t.Errorf("resolved = %v", batch.Resolved)
	}
	if len(batch.Ambiguous) != 1 || len(batch.Ambiguous[0].Candidates) != 2 {
		t.Errorf("ambiguous = %v", batch.Ambiguous)
	}
}

func TestResolveEndpointRequiresNames(t *testing.T) {
	h := NewResolveHandler(&stubResolver{}, slog.Default())
	_, err := postJSON(h.Resolve, "/api/participants/resolve", `{"requester_id":"req-1"}`)
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestResolveEndpointTransportError(t *testing.T) {
	h := NewResolveHandler(&stubResolver{batchErr: errors.New("directory unreachable")}, slog.Default())
	_, err := postJSON(h.Resolve, "/api/participants/resolve", `{"names":["Ivan"]}`)
	requireHTTPError(t, err, http.StatusInternalServerError)
}
