package payment

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// BrowserListener receives in-app browser events.
type BrowserListener struct {
	PageLoaded func(url string)
	Finished   func()
}

// Browser is the in-app browser used by native clients.
type Browser interface {
	// Open loads url in a browser bound to txRef.
	Open(ctx context.Context, txRef, url string) error

	// Listen subscribes l to the browser bound to txRef. The returned func
	// removes both listeners.
	Listen(txRef string, l BrowserListener) (detach func())
}

// BrowserFlow pays by opening the hosted checkout page in a Browser.
type BrowserFlow struct {
	browser Browser
	page    HostedPage
	logger  zerolog.Logger
}

// NewBrowserFlow creates the native payment flow.
func NewBrowserFlow(browser Browser, page HostedPage, logger zerolog.Logger) *BrowserFlow {
	return &BrowserFlow{
		browser: browser,
		page:    page,
		logger:  logger.With().Str("payment_flow", "browser").Logger(),
	}
}

// browserRun resolves exactly once, detaching the listeners first.
type browserRun struct {
	mu      sync.Mutex
	detach  func()
	done    bool
	pending *Outcome
	result  chan Outcome
}

func (r *browserRun) resolve(o Outcome) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	detach := r.detach
	if detach == nil {
		// Listen has not returned yet; attach finishes the job.
		r.pending = &o
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	detach()
	r.result <- o
}

func (r *browserRun) attach(detach func()) {
	r.mu.Lock()
	r.detach = detach
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending != nil {
		detach()
		r.result <- *pending
	}
}

// Pay opens the hosted checkout and waits for the redirect or for the user to
// close the browser, whichever comes first.
func (f *BrowserFlow) Pay(ctx context.Context, req Request) Outcome {
	run := &browserRun{result: make(chan Outcome, 1)}

	checkoutURL, err := f.page.URL(req)
	if err != nil {
		f.logger.Error().Err(err).Str("tx_ref", req.TxRef).Msg("failed to build checkout url")
		return Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: err.Error()}
	}

	detach := f.browser.Listen(req.TxRef, BrowserListener{
		PageLoaded: func(url string) {
			if !f.page.IsRedirect(url) {
				return
			}
			o, err := ParseRedirect(url)
			if err != nil {
				run.resolve(Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: err.Error()})
				return
			}
			if o.TxRef != "" && o.TxRef != req.TxRef {
				f.logger.Warn().
					Str("tx_ref", req.TxRef).
					Str("redirect_tx_ref", o.TxRef).
					Msg("redirect carried a different transaction reference")
				run.resolve(Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: "transaction reference mismatch"})
				return
			}
			o.TxRef = req.TxRef
			run.resolve(o)
		},
		Finished: func() {
			run.resolve(Outcome{Status: StatusCancelled, TxRef: req.TxRef})
		},
	})
	run.attach(detach)

	if err := f.browser.Open(ctx, req.TxRef, checkoutURL); err != nil {
		f.logger.Error().Err(err).Str("tx_ref", req.TxRef).Msg("failed to open browser")
		run.resolve(Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: err.Error()})
	}

	select {
	case o := <-run.result:
		return o
	case <-ctx.Done():
		run.resolve(Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: ctx.Err().Error()})
		return <-run.result
	}
}
