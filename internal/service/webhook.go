package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/lotledger/lotledger/internal/domain"
	"github.com/lotledger/lotledger/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	"import.completed": true,
}

var webhookUserIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	UserID string
	URL    string
	Events []string
}

// WebhookService handles webhook CRUD and event dispatch.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
}

// NewWebhookService creates a WebhookService delivering with the given timeout.
func NewWebhookService(webhookStore *store.WebhookStore, timeout time.Duration) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upsert validates the request and creates or updates subscriptions, one
// per (user, event) pair. Returns the resulting webhooks and whether any
// new subscription was created.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if !webhookUserIDRegex.MatchString(req.UserID) {
		return nil, false, &domain.ValidationError{Message: "user_id must match ^[a-zA-Z0-9_-]{1,64}$"}
	}
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}
	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	deduped := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: import.completed",
			}
		}
		if !seen[event] {
			seen[event] = true
			deduped = append(deduped, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(deduped))

	for _, event := range deduped {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			UserID:    req.UserID,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if s.store.Upsert(w) {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else if existing := s.store.GetByUserEvent(req.UserID, event); existing != nil {
			webhooks = append(webhooks, existing)
		}
	}

	return webhooks, anyCreated, nil
}

// List returns all of a user's webhook subscriptions.
func (s *WebhookService) List(userID string) []*domain.Webhook {
	return s.store.ListByUser(userID)
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// importCompletedPayload is the JSON payload for import.completed webhooks.
type importCompletedPayload struct {
	Event     string              `json:"event"`
	Timestamp string              `json:"timestamp"`
	Data      importCompletedData `json:"data"`
}

type importCompletedData struct {
	UserID         string `json:"user_id"`
	TotalMatched   int    `json:"total_matched"`
	TotalUnmatched int    `json:"total_unmatched"`
	NetProfit      string `json:"net_profit"`
}

// DispatchImportCompleted dispatches an import.completed notification for
// the user's subscription, if any. Fire-and-forget — delivery errors are
// silently ignored.
func (s *WebhookService) DispatchImportCompleted(userID string, result *domain.MatchingResult) {
	wh := s.store.GetByUserEvent(userID, "import.completed")
	if wh == nil {
		return
	}

	payload := importCompletedPayload{
		Event:     "import.completed",
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: importCompletedData{
			UserID:         userID,
			TotalMatched:   result.TotalMatched,
			TotalUnmatched: result.TotalUnmatched,
			NetProfit:      result.NetProfit.StringFixed(2),
		},
	}

	go s.deliver(wh, "import.completed", payload)
}

// deliver sends the webhook payload via HTTP POST with the delivery headers.
// Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
