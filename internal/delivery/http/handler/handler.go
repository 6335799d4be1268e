package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/leadverify-service/internal/delivery/http/request"
	"github.com/user/leadverify-service/internal/delivery/http/response"
	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/internal/usecase"
)

type Handler struct {
	leadManager usecase.LeadManager
	leadRepo    repository.LeadRepository // nil when no database is configured
}

func NewHandler(leadManager usecase.LeadManager, leadRepo repository.LeadRepository) *Handler {
	return &Handler{
		leadManager: leadManager,
		leadRepo:    leadRepo,
	}
}

func (h *Handler) HandleSubmitVerify(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" {
		h.writeJSONError(w, "Phone is required", http.StatusBadRequest)
		return
	}

	lead := entity.Lead{
		Company:     req.Company,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Niche:       req.Niche,
		CampaignID:  req.CampaignID,
		Source:      "api",
	}

	candidateID, err := h.leadManager.Submit(r.Context(), lead, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidPhoneProvided):
			h.writeJSONError(w, "Phone number could not be normalized", http.StatusBadRequest)
		case errors.Is(err, usecase.ErrLeadAlreadyVerified), errors.Is(err, usecase.ErrLeadRecentlyQueued):
			h.writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("Failed to submit lead", "phone", req.Phone, "error", err)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := response.SubmitVerifyResponse{
		Status:      "success",
		Message:     "Lead queued for verification",
		CandidateID: candidateID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetLeadStatus(w http.ResponseWriter, r *http.Request) {
	rawPhone := r.URL.Query().Get("phone")
	if rawPhone == "" {
		h.writeJSONError(w, "Phone query parameter is required", http.StatusBadRequest)
		return
	}

	status, err := h.leadManager.GetStatus(r.Context(), rawPhone)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidPhoneProvided) {
			h.writeJSONError(w, "Phone number could not be normalized", http.StatusBadRequest)
			return
		}
		slog.Error("Failed to get lead status", "phone", rawPhone, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if status.CurrentStatus == "not_found" {
		h.writeJSONError(w, "No verification record for the given phone", http.StatusNotFound)
		return
	}

	resp := response.LeadStatusResponse{
		Phone:         status.Phone,
		CurrentStatus: status.CurrentStatus,
		Outcome:       string(status.Outcome),
		LastCheckedAt: status.LastCheckedAt,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.leadRepo == nil {
		h.writeJSONError(w, "Stats require a configured database", http.StatusServiceUnavailable)
		return
	}

	stats, err := h.leadRepo.Stats(r.Context())
	if err != nil {
		slog.Error("Failed to aggregate lead stats", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]response.NicheStatsResponse, 0, len(stats))
	for _, s := range stats {
		resp = append(resp, response.NicheStatsResponse{
			Niche:      s.Niche,
			Source:     s.Source,
			Total:      s.Total,
			Valid:      s.Valid,
			Invalid:    s.Invalid,
			Unverified: s.Unverified,
			WithEmail:  s.WithEmail,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
