package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/usecase"
)

type fakeLeadManager struct {
	submitID  string
	submitErr error
	status    *entity.LeadStatus
	statusErr error

	gotLead  entity.Lead
	gotForce bool
}

func (f *fakeLeadManager) Submit(ctx context.Context, lead entity.Lead, force bool) (string, error) {
	f.gotLead = lead
	f.gotForce = force
	return f.submitID, f.submitErr
}

func (f *fakeLeadManager) GetStatus(ctx context.Context, rawPhone string) (*entity.LeadStatus, error) {
	return f.status, f.statusErr
}

func TestHandleSubmitVerify(t *testing.T) {
	lm := &fakeLeadManager{submitID: "525512340001"}
	h := NewHandler(lm, nil)

	body := `{"phone":"55 1234 0001","company":"Clinica A","force":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleSubmitVerify(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if lm.gotLead.Company != "Clinica A" || lm.gotLead.Source != "api" || !lm.gotForce {
		t.Errorf("lead passed through wrong: %+v force=%v", lm.gotLead, lm.gotForce)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["candidate_id"] != "525512340001" {
		t.Errorf("candidate_id = %q", resp["candidate_id"])
	}
}

func TestHandleSubmitVerifyErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"missing phone", `{"company":"X"}`, nil, http.StatusBadRequest},
		{"broken body", `{`, nil, http.StatusBadRequest},
		{"unparsable phone", `{"phone":"abc"}`, usecase.ErrInvalidPhoneProvided, http.StatusBadRequest},
		{"already verified", `{"phone":"5512340001"}`, usecase.ErrLeadAlreadyVerified, http.StatusConflict},
		{"recently queued", `{"phone":"5512340001"}`, usecase.ErrLeadRecentlyQueued, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeLeadManager{submitErr: tt.err}, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.HandleSubmitVerify(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleGetLeadStatus(t *testing.T) {
	checked := time.Now()
	lm := &fakeLeadManager{status: &entity.LeadStatus{
		Phone:         "+525512340001",
		CurrentStatus: "verified",
		Outcome:       entity.StatusValid,
		LastCheckedAt: &checked,
	}}
	h := NewHandler(lm, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status?phone=5512340001", nil)
	rec := httptest.NewRecorder()
	h.HandleGetLeadStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["current_status"] != "verified" || resp["outcome"] != "valid" {
		t.Errorf("body = %v", resp)
	}
}

func TestHandleGetLeadStatusNotFound(t *testing.T) {
	h := NewHandler(&fakeLeadManager{status: &entity.LeadStatus{CurrentStatus: "not_found"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status?phone=5512340001", nil)
	rec := httptest.NewRecorder()
	h.HandleGetLeadStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGetLeadStatusRequiresPhone(t *testing.T) {
	h := NewHandler(&fakeLeadManager{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.HandleGetLeadStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStatsWithoutDatabase(t *testing.T) {
	h := NewHandler(&fakeLeadManager{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.HandleStats(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
