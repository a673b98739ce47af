package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SignatureHeader carries the HMAC of a webhook delivery body.
const SignatureHeader = "X-SEOAuditor-Signature-256"

// Sign returns the "sha256=<hex>" HMAC of payload under secret.
func Sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature validates a signature produced by Sign.
func VerifySignature(payload []byte, signature string, secret []byte) error {
	if !strings.HasPrefix(signature, "sha256=") {
		return fmt.Errorf("invalid signature format")
	}
	sig, err := hex.DecodeString(signature[7:])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// WebhookNotifier posts rendered alerts as JSON to a mail relay or chat hook.
type WebhookNotifier struct {
	URL    string
	Secret []byte // optional; signs the body when set
	AppURL string
	Client *http.Client
}

type webhookPayload struct {
	Message
	SiteID      string `json:"site_id"`
	Regressions any    `json:"regressions"`
}

// SendRegressionAlert implements Notifier.
func (n *WebhookNotifier) SendRegressionAlert(ctx context.Context, a Alert) error {
	msg, err := Render(a, n.AppURL)
	if err != nil {
		return err
	}
	body, err := json.Marshal(webhookPayload{Message: *msg, SiteID: a.SiteID, Regressions: a.Regressions})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(n.Secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(body, n.Secret))
	}

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver alert for site %s: %w", a.SiteID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver alert for site %s: status %d", a.SiteID, resp.StatusCode)
	}
	return nil
}
