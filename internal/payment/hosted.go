package payment

import (
	"fmt"
	"net/url"
	"strings"
)

// HostedPage builds hosted checkout links.
type HostedPage struct {
	BaseURL     string
	PublicKey   string
	RedirectURL string
}

// URL returns the form-encoded hosted checkout link for req.
func (h HostedPage) URL(req Request) (string, error) {
	base, err := url.Parse(h.BaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse checkout url: %w", err)
	}

	q := url.Values{}
	q.Set("public_key", h.PublicKey)
	q.Set("tx_ref", req.TxRef)
	q.Set("amount", req.Amount.StringFixed(2))
	q.Set("currency", req.Currency)
	q.Set("redirect_url", h.RedirectURL)
	q.Set("customer[email]", req.Customer.Email)
	q.Set("customer[name]", req.Customer.Name)
	if req.Customer.Phone != "" {
		q.Set("customer[phone_number]", req.Customer.Phone)
	}
	if req.Title != "" {
		q.Set("customizations[title]", req.Title)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// IsRedirect reports whether rawURL is a landing on the redirect URL.
func (h HostedPage) IsRedirect(rawURL string) bool {
	return h.RedirectURL != "" && strings.HasPrefix(rawURL, h.RedirectURL)
}

// ParseRedirect reads status, tx_ref and transaction_id from a redirect URL.
func ParseRedirect(rawURL string) (Outcome, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to parse redirect url: %w", err)
	}
	q := u.Query()
	return Outcome{
		Status:        Normalize(q.Get("status")),
		TxRef:         q.Get("tx_ref"),
		TransactionID: q.Get("transaction_id"),
	}, nil
}
