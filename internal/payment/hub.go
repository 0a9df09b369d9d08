package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for events on unknown or finished sessions.
var ErrSessionNotFound = errors.New("payment session not found")

// Hub bridges HTTP clients to the payment flows. It stands in for the modal
// and the in-app browser: the flows open sessions on it, and the client's
// callback, redirect and close requests are delivered to the flow listening
// on the session.
type Hub struct {
	page   HostedPage
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	url       string
	opened    chan struct{}
	isOpen    bool
	modal     *ModalListener
	browser   map[int]BrowserListener
	nextID    int
	expiresAt time.Time
}

// NewHub creates a session hub. Sessions left open longer than ttl are
// treated as closed by the user.
func NewHub(page HostedPage, ttl time.Duration, logger zerolog.Logger) *Hub {
	return &Hub{
		page:     page,
		ttl:      ttl,
		logger:   logger.With().Str("component", "payment_hub").Logger(),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Modal returns the hub's Modal.
func (h *Hub) Modal() Modal { return hubModal{h} }

// Browser returns the hub's Browser.
func (h *Hub) Browser() Browser { return hubBrowser{h} }

// getOrCreate must be called with h.mu held.
func (h *Hub) getOrCreate(txRef string) *session {
	s, ok := h.sessions[txRef]
	if !ok {
		s = &session{
			opened:    make(chan struct{}),
			browser:   make(map[int]BrowserListener),
			expiresAt: h.now().Add(h.ttl),
		}
		h.sessions[txRef] = s
	}
	return s
}

// markOpen must be called with h.mu held.
func (s *session) markOpen(url string) {
	s.url = url
	if !s.isOpen {
		s.isOpen = true
		close(s.opened)
	}
}

// dropIfIdle must be called with h.mu held.
func (h *Hub) dropIfIdle(txRef string, s *session) {
	if s.isOpen && s.modal == nil && len(s.browser) == 0 && h.sessions[txRef] == s {
		delete(h.sessions, txRef)
	}
}

// listeners returns a snapshot of the session's listeners.
func (h *Hub) listeners(txRef string) (*ModalListener, []BrowserListener) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[txRef]
	if !ok {
		return nil, nil
	}
	browsers := make([]BrowserListener, 0, len(s.browser))
	for _, l := range s.browser {
		browsers = append(browsers, l)
	}
	return s.modal, browsers
}

// Link waits until a flow has opened the session and returns the hosted
// checkout URL the client should load.
func (h *Hub) Link(ctx context.Context, txRef string) (string, error) {
	h.mu.Lock()
	s := h.getOrCreate(txRef)
	opened := s.opened
	h.mu.Unlock()

	select {
	case <-opened:
		h.mu.Lock()
		defer h.mu.Unlock()
		return s.url, nil
	case <-ctx.Done():
		return "", fmt.Errorf("failed to wait for payment session: %w", ctx.Err())
	}
}

// Callback delivers the provider's modal callback.
func (h *Hub) Callback(txRef string, cb Callback) error {
	modal, _ := h.listeners(txRef)
	if modal == nil {
		return ErrSessionNotFound
	}
	if cb.TxRef == "" {
		cb.TxRef = txRef
	}
	modal.Callback(cb)
	return nil
}

// Redirect delivers a landing on the redirect URL. Native sessions see it as
// a page load; web sessions see it as the modal callback.
func (h *Hub) Redirect(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse redirect url: %w", err)
	}
	q := u.Query()
	txRef := q.Get("tx_ref")
	if txRef == "" {
		return ErrSessionNotFound
	}

	modal, browsers := h.listeners(txRef)
	switch {
	case len(browsers) > 0:
		for _, l := range browsers {
			l.PageLoaded(rawURL)
		}
	case modal != nil:
		modal.Callback(Callback{
			Status:        q.Get("status"),
			TransactionID: q.Get("transaction_id"),
			TxRef:         txRef,
		})
	default:
		return ErrSessionNotFound
	}
	return nil
}

// Dismiss reports that the user closed the modal or the browser.
func (h *Hub) Dismiss(txRef string) error {
	modal, browsers := h.listeners(txRef)
	if modal == nil && len(browsers) == 0 {
		return ErrSessionNotFound
	}
	if modal != nil {
		modal.Closed()
	}
	for _, l := range browsers {
		l.Finished()
	}
	return nil
}

// Run expires stale sessions until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	interval := h.ttl / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// Sweep dismisses every session past its expiry.
func (h *Hub) Sweep() {
	now := h.now()

	h.mu.Lock()
	var expired []string
	for txRef, s := range h.sessions {
		if now.Before(s.expiresAt) {
			continue
		}
		if s.modal == nil && len(s.browser) == 0 {
			delete(h.sessions, txRef)
			continue
		}
		expired = append(expired, txRef)
	}
	h.mu.Unlock()

	for _, txRef := range expired {
		h.logger.Info().Str("tx_ref", txRef).Msg("payment session expired")
		if err := h.Dismiss(txRef); err != nil && !errors.Is(err, ErrSessionNotFound) {
			h.logger.Error().Err(err).Str("tx_ref", txRef).Msg("failed to expire payment session")
		}
	}
}

// Len returns the number of tracked sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

type hubModal struct{ h *Hub }

func (m hubModal) Open(_ context.Context, req Request, l ModalListener) error {
	checkoutURL, err := m.h.page.URL(req)
	if err != nil {
		return err
	}

	m.h.mu.Lock()
	defer m.h.mu.Unlock()
	s := m.h.getOrCreate(req.TxRef)
	s.modal = &l
	s.markOpen(checkoutURL)
	return nil
}

func (m hubModal) Close(txRef string) {
	m.h.mu.Lock()
	defer m.h.mu.Unlock()
	if s, ok := m.h.sessions[txRef]; ok {
		s.modal = nil
		m.h.dropIfIdle(txRef, s)
	}
}

type hubBrowser struct{ h *Hub }

func (b hubBrowser) Open(_ context.Context, txRef, checkoutURL string) error {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()
	b.h.getOrCreate(txRef).markOpen(checkoutURL)
	return nil
}

func (b hubBrowser) Listen(txRef string, l BrowserListener) func() {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()

	s := b.h.getOrCreate(txRef)
	id := s.nextID
	s.nextID++
	s.browser[id] = l

	return func() {
		b.h.mu.Lock()
		defer b.h.mu.Unlock()
		delete(s.browser, id)
		b.h.dropIfIdle(txRef, s)
	}
}
