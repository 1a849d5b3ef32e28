package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// EventBudgetLimitReached is the event name carried by webhook deliveries.
const EventBudgetLimitReached = "deadline.budget.limit_reached"

// Webhook delivery headers.
const (
	HeaderEvent     = "X-Deadline-Event"
	HeaderDelivery  = "X-Deadline-Delivery"
	HeaderTimestamp = "X-Deadline-Timestamp"
	HeaderSignature = "X-Deadline-Signature"
)

// WebhookNotifier mirrors alerts to an HTTP endpoint as a JSON envelope
// describing the farm, queue and budget that reached its limit.
type WebhookNotifier struct {
	url    string
	secret []byte
	client *http.Client
	now    func() time.Time
}

// NewWebhookNotifier creates a webhook notifier. A non-empty secret signs
// every delivery; see Sign.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

type webhookFarm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type webhookQueue struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	DefaultBudgetAction model.BudgetAction `json:"default_budget_action"`
}

type webhookBudget struct {
	ID             string  `json:"id"`
	Name           string  `json:"name,omitempty"`
	Limit          float64 `json:"limit"`
	LimitFormatted string  `json:"limit_formatted"`
	Usage          float64 `json:"usage"`
	EditURL        string  `json:"edit_url"`
}

// webhookEnvelope is the request body. DedupKey is stable for a budget and
// limit so receivers can drop redeliveries.
type webhookEnvelope struct {
	Event    string        `json:"event"`
	Delivery string        `json:"delivery_id"`
	SentAt   time.Time     `json:"sent_at"`
	DedupKey string        `json:"dedup_key"`
	Studio   string        `json:"studio"`
	Farm     webhookFarm   `json:"farm"`
	Queue    webhookQueue  `json:"queue"`
	Budget   webhookBudget `json:"budget"`
	Subject  string        `json:"subject"`
	Message  string        `json:"message"`
}

func newEnvelope(alert Alert, sentAt time.Time) webhookEnvelope {
	return webhookEnvelope{
		Event:    EventBudgetLimitReached,
		Delivery: uuid.NewString(),
		SentAt:   sentAt.UTC().Truncate(time.Second),
		DedupKey: alert.BudgetID + "@" + strconv.FormatFloat(alert.Limit, 'f', 2, 64),
		Studio:   alert.Studio,
		Farm:     webhookFarm{ID: alert.FarmID, Name: alert.FarmName},
		Queue:    webhookQueue{ID: alert.QueueID, Name: alert.QueueName, DefaultBudgetAction: alert.Action},
		Budget: webhookBudget{
			ID:             alert.BudgetID,
			Name:           alert.BudgetName,
			Limit:          alert.Limit,
			LimitFormatted: alert.LimitFormatted,
			Usage:          alert.Usage,
			EditURL:        alert.EditURL(),
		},
		Subject: alert.Subject,
		Message: alert.Message,
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	env := newEnvelope(alert, w.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal webhook envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	ts := strconv.FormatInt(env.SentAt.Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Deadline-Cloud-Notifier/1.0")
	req.Header.Set(HeaderEvent, env.Event)
	req.Header.Set(HeaderDelivery, env.Delivery)
	req.Header.Set(HeaderTimestamp, ts)
	if len(w.secret) > 0 {
		req.Header.Set(HeaderSignature, "sha256="+Sign(w.secret, ts, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return model.NewError(model.KindTransient, "deliver webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return model.NewError(model.KindTransient, "deliver webhook",
			fmt.Errorf("webhook %s returned status %d: %s", env.Delivery, resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of "<timestamp>.<body>" under secret.
// Receivers recompute it from the HeaderTimestamp value and the raw body.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
