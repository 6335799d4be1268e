package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/phone"
)

type memSubmitted struct {
	marks map[string]bool
}

func newMemSubmitted() *memSubmitted { return &memSubmitted{marks: map[string]bool{}} }

func (m *memSubmitted) MarkSubmitted(ctx context.Context, id string, expiry time.Duration) error {
	m.marks[id] = true
	return nil
}

func (m *memSubmitted) IsSubmitted(ctx context.Context, id string) (bool, error) {
	return m.marks[id], nil
}

func (m *memSubmitted) RemoveSubmitted(ctx context.Context, id string) error {
	delete(m.marks, id)
	return nil
}

type memQueue struct {
	items []*entity.Candidate
}

func (q *memQueue) Push(ctx context.Context, c *entity.Candidate) error {
	q.items = append(q.items, c)
	return nil
}

func (q *memQueue) Pop(ctx context.Context) (*entity.Candidate, error) {
	if len(q.items) == 0 {
		return nil, repository.ErrQueueEmpty
	}
	c := q.items[0]
	q.items = q.items[1:]
	return c, nil
}

func (q *memQueue) Size(ctx context.Context) (int64, error) { return int64(len(q.items)), nil }

type memResults struct {
	byID map[string]*entity.VerifiedLead
}

func newMemResults() *memResults { return &memResults{byID: map[string]*entity.VerifiedLead{}} }

func (r *memResults) Save(ctx context.Context, lead *entity.VerifiedLead) error {
	r.byID[lead.ID] = lead
	return nil
}

func (r *memResults) Flush(ctx context.Context) error { return nil }

func (r *memResults) FindByID(ctx context.Context, id string) (*entity.VerifiedLead, error) {
	if lead, ok := r.byID[id]; ok {
		return lead, nil
	}
	return nil, repository.ErrResultNotFound
}

func (r *memResults) All(ctx context.Context) ([]*entity.VerifiedLead, error) {
	out := make([]*entity.VerifiedLead, 0, len(r.byID))
	for _, lead := range r.byID {
		out = append(out, lead)
	}
	return out, nil
}

func newLeadManagerFixture() (LeadManager, *memSubmitted, *memQueue, *memResults) {
	submitted := newMemSubmitted()
	queue := &memQueue{}
	results := newMemResults()
	lm := NewLeadManager(phone.Normalizer{CountryCode: "52", LocalArea: "55"}, submitted, queue, results)
	return lm, submitted, queue, results
}

func TestSubmitQueuesNormalizedCandidate(t *testing.T) {
	lm, submitted, queue, _ := newLeadManagerFixture()

	id, err := lm.Submit(context.Background(), entity.Lead{Company: "Clinica A", Phone: "55 1234 0001"}, false)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "525512340001" {
		t.Errorf("candidate id = %q", id)
	}
	if len(queue.items) != 1 || queue.items[0].ID != id {
		t.Errorf("queue = %+v", queue.items)
	}
	if !submitted.marks[id] {
		t.Error("submission marker not set")
	}
}

func TestSubmitRejectsDuplicateUntilForced(t *testing.T) {
	lm, _, queue, _ := newLeadManagerFixture()
	lead := entity.Lead{Phone: "55 1234 0001"}

	if _, err := lm.Submit(context.Background(), lead, false); err != nil {
		t.Fatal(err)
	}
	if _, err := lm.Submit(context.Background(), lead, false); !errors.Is(err, ErrLeadRecentlyQueued) {
		t.Fatalf("second Submit() error = %v, want ErrLeadRecentlyQueued", err)
	}
	if len(queue.items) != 1 {
		t.Fatalf("queue grew to %d on rejected submit", len(queue.items))
	}

	if _, err := lm.Submit(context.Background(), lead, true); err != nil {
		t.Fatalf("forced Submit() error = %v", err)
	}
	if len(queue.items) != 2 {
		t.Errorf("forced submit did not queue, len = %d", len(queue.items))
	}
}

func TestSubmitRejectsTerminalOutcome(t *testing.T) {
	lm, _, _, results := newLeadManagerFixture()
	_ = results.Save(context.Background(), &entity.VerifiedLead{
		ID: "525512340001", Status: entity.StatusValid, CheckedAt: time.Now(),
	})

	_, err := lm.Submit(context.Background(), entity.Lead{Phone: "55 1234 0001"}, false)
	if !errors.Is(err, ErrLeadAlreadyVerified) {
		t.Errorf("Submit() error = %v, want ErrLeadAlreadyVerified", err)
	}
}

func TestSubmitRejectsUnparsablePhone(t *testing.T) {
	lm, _, _, _ := newLeadManagerFixture()

	_, err := lm.Submit(context.Background(), entity.Lead{Phone: "sin telefono"}, false)
	if !errors.Is(err, ErrInvalidPhoneProvided) {
		t.Errorf("Submit() error = %v, want ErrInvalidPhoneProvided", err)
	}
}

func TestGetStatusTransitions(t *testing.T) {
	lm, _, _, results := newLeadManagerFixture()
	ctx := context.Background()

	status, err := lm.GetStatus(ctx, "55 1234 0001")
	if err != nil {
		t.Fatal(err)
	}
	if status.CurrentStatus != "not_found" {
		t.Errorf("before submit: %q", status.CurrentStatus)
	}

	if _, err := lm.Submit(ctx, entity.Lead{Phone: "55 1234 0001"}, false); err != nil {
		t.Fatal(err)
	}
	status, err = lm.GetStatus(ctx, "55 1234 0001")
	if err != nil {
		t.Fatal(err)
	}
	if status.CurrentStatus != "pending" {
		t.Errorf("after submit: %q", status.CurrentStatus)
	}

	checked := time.Now()
	_ = results.Save(ctx, &entity.VerifiedLead{ID: "525512340001", Status: entity.StatusInvalid, CheckedAt: checked})
	status, err = lm.GetStatus(ctx, "55 1234 0001")
	if err != nil {
		t.Fatal(err)
	}
	if status.CurrentStatus != "verified" || status.Outcome != entity.StatusInvalid {
		t.Errorf("after outcome: %+v", status)
	}
	if status.Phone != "+525512340001" {
		t.Errorf("display phone = %q", status.Phone)
	}
}
