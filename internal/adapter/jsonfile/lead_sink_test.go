package jsonfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/user/leadverify-service/internal/entity"
)

func TestLeadSinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")

	leads := []*entity.Lead{
		{Company: "Clinica A", Phone: "55 1234 0001", Niche: "dentistas"},
		{Company: "Clinica B", Phone: "55 1234 0002", Niche: "dentistas"},
		{Company: "Sin Telefono", Niche: "dermatologos"},
	}
	if err := NewLeadSink(path).Store(ctx, "camp-1", leads); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	// The sink's output is the candidate source's input.
	candidates, err := NewCandidateSource(path, testNormalizer).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}
	if candidates[0].ID != "525512340001" || candidates[1].ID != "525512340002" {
		t.Errorf("ids = %q, %q", candidates[0].ID, candidates[1].ID)
	}
	if !candidates[2].Malformed() {
		t.Error("phoneless lead should come back malformed, not dropped")
	}
	if candidates[0].Lead.Company != "Clinica A" {
		t.Errorf("lead metadata lost: %+v", candidates[0].Lead)
	}
}

func TestLeadSinkReplacesPreviousFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")
	sink := NewLeadSink(path)

	if err := sink.Store(ctx, "camp-1", []*entity.Lead{{Phone: "55 1234 0001"}}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Store(ctx, "camp-1", []*entity.Lead{{Phone: "55 9999 0002"}}); err != nil {
		t.Fatal(err)
	}

	candidates, err := NewCandidateSource(path, testNormalizer).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].ID != "525599990002" {
		t.Errorf("second Store did not replace the batch: %+v", candidates)
	}
}
