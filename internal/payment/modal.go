package payment

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Callback is the provider's modal callback payload.
type Callback struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	TxRef         string `json:"tx_ref"`
}

// ModalListener receives the modal's events.
type ModalListener struct {
	Callback func(Callback)
	Closed   func()
}

// Modal is the hosted checkout modal used by browser clients.
type Modal interface {
	// Open shows the modal for req and routes its events to l.
	Open(ctx context.Context, req Request, l ModalListener) error

	// Close dismisses the modal for txRef.
	Close(txRef string)
}

// ModalFlow pays through a Modal.
type ModalFlow struct {
	modal  Modal
	logger zerolog.Logger
}

// NewModalFlow creates the browser payment flow.
func NewModalFlow(modal Modal, logger zerolog.Logger) *ModalFlow {
	return &ModalFlow{
		modal:  modal,
		logger: logger.With().Str("payment_flow", "modal").Logger(),
	}
}

// modalRun is the state of one open modal.
type modalRun struct {
	mu         sync.Mutex
	submitting bool
	resolved   bool
	result     chan Outcome
}

func (r *modalRun) resolve(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return
	}
	r.resolved = true
	r.result <- o
}

// Pay opens the modal and waits for it to resolve. A callback closes the modal
// straight away. Dismissing the modal reports a cancellation only when no
// callback is already being processed.
func (f *ModalFlow) Pay(ctx context.Context, req Request) Outcome {
	run := &modalRun{result: make(chan Outcome, 1)}

	listener := ModalListener{
		Callback: func(cb Callback) {
			run.mu.Lock()
			if run.resolved || run.submitting {
				run.mu.Unlock()
				return
			}
			run.submitting = true
			run.mu.Unlock()

			f.modal.Close(req.TxRef)

			txRef := cb.TxRef
			if txRef == "" {
				txRef = req.TxRef
			}
			run.resolve(Outcome{
				Status:        Normalize(cb.Status),
				TransactionID: cb.TransactionID,
				TxRef:         txRef,
			})
		},
		Closed: func() {
			run.mu.Lock()
			inFlight := run.submitting
			run.mu.Unlock()
			if inFlight {
				f.logger.Debug().Str("tx_ref", req.TxRef).Msg("modal closed during submission")
				return
			}
			run.resolve(Outcome{Status: StatusCancelled, TxRef: req.TxRef})
		},
	}

	if err := f.modal.Open(ctx, req, listener); err != nil {
		f.logger.Error().Err(err).Str("tx_ref", req.TxRef).Msg("failed to open payment modal")
		run.resolve(Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: err.Error()})
	}

	select {
	case o := <-run.result:
		return o
	case <-ctx.Done():
		f.modal.Close(req.TxRef)
		run.resolve(Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: ctx.Err().Error()})
		return <-run.result
	}
}
