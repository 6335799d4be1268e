package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/phone"
)

var testNormalizer = phone.Normalizer{CountryCode: "52", LocalArea: "55"}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads_raw.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCandidateSourceLoad(t *testing.T) {
	path := writeInput(t, `{
		"metadata": {"total_leads": 3},
		"leads": [
			{"phone": "+52 55 1234 0001", "company": "Clinica Uno", "niche": "psicologo"},
			{"phone": "55-1234-0002", "company": "Clinica Dos"},
			{"company": "Sin Telefono"}
		]
	}`)

	src := NewCandidateSource(path, testNormalizer)
	candidates, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3 (malformed ones kept)", len(candidates))
	}

	if got, want := candidates[0].ID, "525512340001"; got != want {
		t.Errorf("candidates[0].ID = %q, want %q", got, want)
	}
	if got, want := candidates[1].ID, "525512340002"; got != want {
		t.Errorf("candidates[1].ID = %q, want %q", got, want)
	}
	if !candidates[2].Malformed() {
		t.Error("phoneless lead should be a malformed candidate, not dropped")
	}
	if candidates[0].Lead.Company != "Clinica Uno" {
		t.Errorf("lead metadata not carried through: %+v", candidates[0].Lead)
	}
}

func TestCandidateSourceBareArray(t *testing.T) {
	path := writeInput(t, `[{"phone": "5512340003"}]`)

	src := NewCandidateSource(path, testNormalizer)
	candidates, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "525512340003" {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}

func TestCandidateSourceMissingFile(t *testing.T) {
	src := NewCandidateSource(filepath.Join(t.TempDir(), "absent.json"), testNormalizer)
	_, err := src.Load(context.Background())
	if !errors.Is(err, repository.ErrUnreadableInput) {
		t.Errorf("Load() error = %v, want ErrUnreadableInput", err)
	}
}
