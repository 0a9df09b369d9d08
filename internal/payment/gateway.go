package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrVerificationFailed means the gateway's record does not match the payment
// we asked for.
var ErrVerificationFailed = errors.New("payment verification failed")

// Verifier confirms a successful outcome with the gateway.
type Verifier interface {
	Verify(ctx context.Context, req Request, o Outcome) error
}

// ErrNoVerifier is returned when a successful outcome arrives but no gateway
// verification has been configured.
var ErrNoVerifier = errors.New("payment verification is not configured")

// NoopVerifier accepts every outcome. Only wire it when verification has been
// explicitly disabled, since callbacks reach the server unauthenticated.
type NoopVerifier struct{}

// Verify implements Verifier.
func (NoopVerifier) Verify(context.Context, Request, Outcome) error { return nil }

// RejectVerifier refuses every outcome.
type RejectVerifier struct{}

// Verify implements Verifier.
func (RejectVerifier) Verify(context.Context, Request, Outcome) error { return ErrNoVerifier }

// FlutterwaveClient verifies transactions against the Flutterwave v3 API.
type FlutterwaveClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewFlutterwaveClient creates a verification client.
func NewFlutterwaveClient(baseURL, secretKey string, logger zerolog.Logger) *FlutterwaveClient {
	return &FlutterwaveClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With().Str("gateway", "flutterwave").Logger(),
	}
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       int64           `json:"id"`
		TxRef    string          `json:"tx_ref"`
		Status   string          `json:"status"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	} `json:"data"`
}

// Verify fetches the transaction and checks status, reference, amount and currency.
func (c *FlutterwaveClient) Verify(ctx context.Context, req Request, o Outcome) error {
	if o.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction id", ErrVerificationFailed)
	}

	endpoint := fmt.Sprintf("%s/v3/transactions/%s/verify", c.baseURL, url.PathEscape(o.TransactionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build verify request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read verify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway returned %d: %s", ErrVerificationFailed, resp.StatusCode, string(body))
	}

	var vr verifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return fmt.Errorf("failed to parse verify response: %w", err)
	}

	var mismatch string
	switch {
	case vr.Status != "success":
		mismatch = "gateway status " + vr.Status
	case Normalize(vr.Data.Status) != StatusSuccessful:
		mismatch = "transaction status " + vr.Data.Status
	case vr.Data.TxRef != req.TxRef:
		mismatch = "tx_ref " + vr.Data.TxRef
	case !strings.EqualFold(vr.Data.Currency, req.Currency):
		mismatch = "currency " + vr.Data.Currency
	case vr.Data.Amount.LessThan(req.Amount):
		mismatch = "amount " + vr.Data.Amount.String()
	}
	if mismatch != "" {
		c.logger.Warn().
			Str("tx_ref", req.TxRef).
			Str("transaction_id", o.TransactionID).
			Str("mismatch", mismatch).
			Msg("transaction verification mismatch")
		return fmt.Errorf("%w: %s", ErrVerificationFailed, mismatch)
	}

	c.logger.Debug().Str("tx_ref", req.TxRef).Str("transaction_id", o.TransactionID).Msg("transaction verified")
	return nil
}
