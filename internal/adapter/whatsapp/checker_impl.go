package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
)

const sendURLFormat = "https://web.whatsapp.com/send?phone=%s"

// Classifier maps WhatsApp Web UI states to outcome statuses. The exact
// selectors are a policy, not a contract: the site changes them, so they
// are swappable without touching the checker.
type Classifier struct {
	// Compose matches the message input of an open conversation: the
	// number has an account.
	Compose []string
	// Unreachable matches the "phone number shared via url is invalid"
	// dialog: the number has no account.
	Unreachable []string
	// Throttled matches rate-limit or challenge UI: the response cannot
	// be classified confidently and the candidate stays retryable.
	Throttled []string
}

// DefaultClassifier returns the selector table validated against the
// current WhatsApp Web markup.
func DefaultClassifier() Classifier {
	return Classifier{
		Compose: []string{
			`footer[data-testid='conversation-compose-box-input']`,
			`div[data-testid='chat-input']`,
			`div[role='textbox'][contenteditable='true']`,
		},
		Unreachable: []string{
			`div[data-testid='confirm-popup']`,
			`div[data-animate-modal-body='true']`,
		},
		Throttled: []string{
			`div[data-testid='captcha']`,
			`div[data-testid='spam-modal']`,
		},
	}
}

// CheckerRepoImpl provides a concrete implementation for the
// CheckerRepository interface by opening a wa.me conversation for the
// candidate's number and classifying what the page shows.
type CheckerRepoImpl struct {
	timeout    time.Duration
	classifier Classifier
}

// NewCheckerRepo creates a checker with the given per-check timeout.
func NewCheckerRepo(timeout time.Duration, classifier Classifier) *CheckerRepoImpl {
	return &CheckerRepoImpl{timeout: timeout, classifier: classifier}
}

// Check classifies the platform's response for one candidate. Every
// failure path resolves to a status; no error ever escapes.
func (c *CheckerRepoImpl) Check(ctx context.Context, sess repository.SessionHandle, candidate *entity.Candidate) *entity.VerificationOutcome {
	outcome := func(status entity.Status, reason string) *entity.VerificationOutcome {
		return &entity.VerificationOutcome{
			CandidateID: candidate.ID,
			Status:      status,
			CheckedAt:   time.Now(),
			Reason:      reason,
		}
	}

	handle, ok := sess.(*sessionHandle)
	if !ok || handle.ctx == nil {
		return outcome(entity.StatusError, "no usable session")
	}
	if candidate.Malformed() {
		return outcome(entity.StatusError, "unparsable phone number")
	}

	// A fresh tab per check keeps one candidate's page state from
	// leaking into the next.
	tabCtx, cancelTab := chromedp.NewContext(handle.ctx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	url := fmt.Sprintf(sendURLFormat, candidate.ID)
	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		// Timeout, disconnect or a dead browser: the page never
		// answered, so this is a transport failure.
		return outcome(entity.StatusError, fmt.Sprintf("navigation failed: %v", err))
	}

	for {
		if status, reason, found := c.classify(tabCtx); found {
			return outcome(status, reason)
		}
		select {
		case <-tabCtx.Done():
			if errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
				// The page loaded but never reached a classifiable
				// state: unknown UI, not a transport failure.
				return outcome(entity.StatusAmbiguous, "no classifiable ui state before timeout")
			}
			return outcome(entity.StatusError, fmt.Sprintf("check aborted: %v", tabCtx.Err()))
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// classify probes the selector table in priority order: explicit
// negatives and throttle markers first, because an open chat list also
// matches generic textbox selectors.
func (c *CheckerRepoImpl) classify(tabCtx context.Context) (entity.Status, string, bool) {
	for _, sel := range c.classifier.Throttled {
		if nodesPresent(tabCtx, sel) {
			slog.Debug("Throttle marker present", "selector", sel)
			return entity.StatusAmbiguous, "platform throttle or challenge presented", true
		}
	}
	for _, sel := range c.classifier.Unreachable {
		if nodesPresent(tabCtx, sel) {
			return entity.StatusInvalid, "platform reports number has no account", true
		}
	}
	for _, sel := range c.classifier.Compose {
		if nodesPresent(tabCtx, sel) {
			return entity.StatusValid, "conversation compose box present", true
		}
	}
	return "", "", false
}
