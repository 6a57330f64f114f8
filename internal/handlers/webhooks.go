package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/midhun-sadanand/couchd-sub001/internal/models"
	"github.com/midhun-sadanand/couchd-sub001/internal/store"
)

// WebhookHandler receives identity-provider user events and keeps
// profiles in sync. Signatures follow the svix scheme Clerk uses:
// HMAC-SHA256 over "{id}.{timestamp}.{body}" with the endpoint secret.
type WebhookHandler struct {
	Store  *store.Store
	Secret string
	Log    *zap.Logger
}

func NewWebhookHandler(s *store.Store, secret string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Store: s, Secret: secret, Log: log}
}

func (h *WebhookHandler) verify(r *http.Request, body []byte) bool {
	id := r.Header.Get("svix-id")
	ts := r.Header.Get("svix-timestamp")
	sigHeader := r.Header.Get("svix-signature")
	if id == "" || ts == "" || sigHeader == "" {
		return false
	}
	secret := strings.TrimPrefix(h.Secret, "whsec_")
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(body)
	expected := mac.Sum(nil)
	// Header may carry multiple space-separated "v1,<sig>" entries.
	for _, part := range strings.Fields(sigHeader) {
		raw, ok := strings.CutPrefix(part, "v1,")
		if !ok {
			continue
		}
		sig, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			continue
		}
		if hmac.Equal(sig, expected) {
			return true
		}
	}
	return false
}

type clerkEvent struct {
	Type string `json:"type"`
	Data struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		ImageURL  string `json:"image_url"`
		FirstName string `json:"first_name"`
		Emails    []struct {
			Email string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// Clerk handles POST /v1/webhooks/clerk.
func (h *WebhookHandler) Clerk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !h.verify(r, body) {
		h.Log.Warn("webhook signature rejected")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var ev clerkEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.Data.ID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch ev.Type {
	case "user.created", "user.updated":
		p := &models.Profile{
			ID:       ev.Data.ID,
			Username: ev.Data.Username,
			Avatar:   ev.Data.ImageURL,
		}
		if len(ev.Data.Emails) > 0 {
			p.Email = ev.Data.Emails[0].Email
		}
		if p.Username == "" && p.Email != "" {
			p.Username = strings.SplitN(p.Email, "@", 2)[0]
		}
		if p.Username == "" {
			p.Username = ev.Data.FirstName
		}
		if err := h.Store.UpsertProfile(r.Context(), p); err != nil {
			writeErr(w, h.Log, err)
			return
		}
	case "user.deleted":
		if err := h.Store.DeleteProfile(r.Context(), ev.Data.ID); err != nil {
			writeErr(w, h.Log, err)
			return
		}
	default:
		// Unhandled event types acknowledge without action.
	}
	w.WriteHeader(http.StatusNoContent)
}
