package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rsvpbot/internal/interfaces"
)

const defaultGraphAPIBase = "https://graph.facebook.com/v21.0"

// WhatsAppClient sends messages through the WhatsApp Cloud API.
type WhatsAppClient struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	http          *http.Client
	log           zerolog.Logger
}

func NewWhatsAppClient(accessToken, phoneNumberID string, log zerolog.Logger) *WhatsAppClient {
	return &WhatsAppClient{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultGraphAPIBase,
		http:          &http.Client{Timeout: 30 * time.Second},
		log:           log.With().Str("component", "whatsapp").Logger(),
	}
}

// WithBaseURL overrides the Graph API base. Used by tests.
func (w *WhatsAppClient) WithBaseURL(base string) *WhatsAppClient {
	w.baseURL = base
	return w
}

// Configured reports whether credentials are present.
func (w *WhatsAppClient) Configured() bool {
	return w.accessToken != "" && w.phoneNumberID != ""
}

// SendText sends a plain text message and returns the provider id.
func (w *WhatsAppClient) SendText(to, body string) (string, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]string{
			"body": body,
		},
	}
	return w.post(payload)
}

// SendTemplate sends a pre-approved message template. Each variable
// fills one {{n}} placeholder in the template body, in order.
func (w *WhatsAppClient) SendTemplate(to, templateName, languageCode string, variables []string) (string, error) {
	params := make([]map[string]string, 0, len(variables))
	for _, v := range variables {
		params = append(params, map[string]string{"type": "text", "text": v})
	}
	template := map[string]interface{}{
		"name":     templateName,
		"language": map[string]string{"code": languageCode},
	}
	if len(params) > 0 {
		template["components"] = []map[string]interface{}{
			{"type": "body", "parameters": params},
		}
	}
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template":          template,
	}
	return w.post(payload)
}

func (w *WhatsAppClient) post(payload map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloud api request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Warn().Int("status", resp.StatusCode).Str("body", string(respBody)).Msg("send rejected")
		return "", fmt.Errorf("cloud api status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Messages) == 0 {
		// Accepted but no id; not worth failing the send over.
		w.log.Debug().Str("body", string(respBody)).Msg("send accepted without message id")
		return "", nil
	}
	return parsed.Messages[0].ID, nil
}

var _ interfaces.MessageSender = (*WhatsAppClient)(nil)
