// Package whatsapp drives WhatsApp Web through chromedp: a session
// manager over a persistent browser profile, and a reachability checker
// that classifies the platform's response per candidate.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/user/leadverify-service/internal/repository"
)

const (
	loginURL      = "https://web.whatsapp.com"
	qrScanTimeout = 180 * time.Second
	probeInterval = 2 * time.Second

	userAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`
)

// sessionSelectors mark an authenticated WhatsApp Web UI. Any match
// means the persisted profile still carries a live session.
var sessionSelectors = []string{
	`div[data-testid='chat-list']`,
	`div[data-testid='chat-list-search']`,
	`button[aria-label='New chat']`,
	`div[aria-label*='chat' i]`,
}

// SessionRepoImpl provides a concrete implementation for the
// SessionRepository interface using a chromedp browser with a persistent
// user data dir: the QR code is scanned once, later runs restore the
// session from disk.
type SessionRepoImpl struct {
	profileDir  string
	headless    bool
	loginWait   time.Duration
	interactive bool

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	current       *sessionHandle
	sessionSeq    int
}

// NewSessionRepo creates a session manager over the given profile
// directory. With interactive set, a missing session triggers a headful
// QR login instead of ErrAuthRequired.
func NewSessionRepo(profileDir string, interactive bool, loginWait time.Duration) *SessionRepoImpl {
	if loginWait == 0 {
		loginWait = 15 * time.Second
	}
	return &SessionRepoImpl{
		profileDir:  profileDir,
		headless:    !interactive,
		interactive: interactive,
		loginWait:   loginWait,
	}
}

type sessionHandle struct {
	id  string
	ctx context.Context
}

// ID identifies the session for logging.
func (h *sessionHandle) ID() string { return h.id }

// Acquire restores the persisted session, launching the browser on first
// use. Without a usable profile it returns ErrAuthRequired (headless) or
// waits for the operator to scan the QR code (interactive).
func (s *SessionRepoImpl) Acquire(ctx context.Context) (repository.SessionHandle, error) {
	if s.current != nil && s.browserCtx != nil && s.browserCtx.Err() == nil {
		return s.current, nil
	}

	if err := s.launch(ctx); err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(s.browserCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(loginURL)); err != nil {
		s.teardown()
		return nil, fmt.Errorf("failed to open WhatsApp Web: %w", err)
	}

	if s.authenticated(ctx, s.loginWait) {
		return s.newHandle(), nil
	}

	if !s.interactive {
		s.teardown()
		return nil, repository.ErrAuthRequired
	}

	slog.Warn("No persisted session found, scan the QR code now",
		"profile", s.profileDir, "timeout", qrScanTimeout.String())
	if s.authenticated(ctx, qrScanTimeout) {
		slog.Info("QR scan completed, session persisted", "profile", s.profileDir)
		return s.newHandle(), nil
	}

	s.teardown()
	return nil, fmt.Errorf("%w: QR code was not scanned within %s", repository.ErrAuthRequired, qrScanTimeout)
}

// Invalidate discards the browser after a transport failure. The profile
// on disk stays intact; the next Acquire relaunches from it.
func (s *SessionRepoImpl) Invalidate(ctx context.Context, sess repository.SessionHandle) error {
	if s.current == nil || sess == nil || sess.ID() != s.current.id {
		return nil
	}
	slog.Info("Invalidating session", "session", sess.ID())
	s.teardown()
	return nil
}

// Close shuts the browser down. Credentials remain on disk.
func (s *SessionRepoImpl) Close(ctx context.Context) error {
	s.teardown()
	return nil
}

func (s *SessionRepoImpl) launch(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(s.profileDir),
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first check.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	return nil
}

// authenticated polls the page for any logged-in marker until the
// deadline passes.
func (s *SessionRepoImpl) authenticated(ctx context.Context, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for {
		for _, sel := range sessionSelectors {
			if nodesPresent(s.browserCtx, sel) {
				return true
			}
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(probeInterval):
		}
	}
}

func (s *SessionRepoImpl) newHandle() *sessionHandle {
	s.sessionSeq++
	s.current = &sessionHandle{
		id:  fmt.Sprintf("whatsapp-%d", s.sessionSeq),
		ctx: s.browserCtx,
	}
	slog.Info("Session acquired", "session", s.current.id, "profile", s.profileDir)
	return s.current
}

func (s *SessionRepoImpl) teardown() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.browserCtx = nil
	s.browserCancel = nil
	s.allocCancel = nil
	s.current = nil
}

// nodesPresent reports whether the selector currently matches at least
// one node, without waiting for it to appear.
func nodesPresent(browserCtx context.Context, sel string) bool {
	probeCtx, cancel := context.WithTimeout(browserCtx, 3*time.Second)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(probeCtx,
		chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	return err == nil && len(nodes) > 0
}
