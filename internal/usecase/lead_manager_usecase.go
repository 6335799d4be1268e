package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/phone"
)

var (
	ErrLeadRecentlyQueued   = errors.New("lead has been queued recently and force is false")
	ErrLeadAlreadyVerified  = errors.New("lead already has a terminal outcome and force is false")
	ErrInvalidPhoneProvided = errors.New("phone number could not be normalized")
)

const submissionExpiry = 48 * time.Hour // 2 days

// LeadManager defines the interface for submitting and checking leads
// through the API.
type LeadManager interface {
	Submit(ctx context.Context, lead entity.Lead, force bool) (string, error)
	GetStatus(ctx context.Context, rawPhone string) (*entity.LeadStatus, error)
}

type leadManagerUseCase struct {
	normalizer    phone.Normalizer
	submittedRepo repository.SubmittedRepository
	queueRepo     repository.QueueRepository
	resultRepo    repository.ResultRepository
}

// NewLeadManager creates a new LeadManager use case.
func NewLeadManager(
	normalizer phone.Normalizer,
	submittedRepo repository.SubmittedRepository,
	queueRepo repository.QueueRepository,
	resultRepo repository.ResultRepository,
) LeadManager {
	return &leadManagerUseCase{
		normalizer:    normalizer,
		submittedRepo: submittedRepo,
		queueRepo:     queueRepo,
		resultRepo:    resultRepo,
	}
}

// Submit normalizes the lead's phone number and queues it for
// verification. A number that already carries a terminal outcome, or
// that is already waiting in the queue, is rejected unless force is set.
func (uc *leadManagerUseCase) Submit(ctx context.Context, lead entity.Lead, force bool) (string, error) {
	id, err := uc.normalizer.Normalize(lead.Phone)
	if err != nil {
		return "", errors.Join(ErrInvalidPhoneProvided, err)
	}

	if force {
		if err := uc.submittedRepo.RemoveSubmitted(ctx, id); err != nil {
			slog.Warn("Failed to remove submission marker for force verify", "candidate", id, "error", err)
			// Continue anyway, as this is not a critical failure
		}
	} else {
		if prior, err := uc.resultRepo.FindByID(ctx, id); err == nil && prior.Status.Terminal() {
			return id, ErrLeadAlreadyVerified
		} else if err != nil && !errors.Is(err, repository.ErrResultNotFound) {
			return "", err
		}

		queued, err := uc.submittedRepo.IsSubmitted(ctx, id)
		if err != nil {
			return "", err
		}
		if queued {
			return id, ErrLeadRecentlyQueued
		}
	}

	if err := uc.queueRepo.Push(ctx, &entity.Candidate{ID: id, Lead: lead}); err != nil {
		return "", err
	}

	if err := uc.submittedRepo.MarkSubmitted(ctx, id, submissionExpiry); err != nil {
		// The candidate is in the queue but might be queued again if
		// another request arrives before it is processed. Log it.
		slog.Error("Failed to mark lead as submitted after queueing", "candidate", id, "error", err)
	}

	return id, nil
}

// GetStatus reports the pipeline position for a phone number: verified
// when a merged outcome exists, pending when the submission marker is
// live, not_found otherwise.
func (uc *leadManagerUseCase) GetStatus(ctx context.Context, rawPhone string) (*entity.LeadStatus, error) {
	id, err := uc.normalizer.Normalize(rawPhone)
	if err != nil {
		return nil, errors.Join(ErrInvalidPhoneProvided, err)
	}

	verified, err := uc.resultRepo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrResultNotFound) {
		return nil, err
	}
	if verified != nil {
		checkedAt := verified.CheckedAt
		return &entity.LeadStatus{
			Phone:         phone.Display(id),
			CurrentStatus: "verified",
			Outcome:       verified.Status,
			LastCheckedAt: &checkedAt,
		}, nil
	}

	queued, err := uc.submittedRepo.IsSubmitted(ctx, id)
	if err != nil {
		return nil, err
	}
	if queued {
		return &entity.LeadStatus{
			Phone:         phone.Display(id),
			CurrentStatus: "pending",
		}, nil
	}

	return &entity.LeadStatus{
		Phone:         phone.Display(id),
		CurrentStatus: "not_found",
	}, nil
}
