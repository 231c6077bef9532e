package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"rsvpbot/internal/entities"
	"rsvpbot/internal/interfaces"
)

// BackendClient talks to the remote invite/RSVP REST backend. It is the
// single implementation behind the ProfileGateway, RSVPGateway,
// RecipientGateway and DeliveryLogger ports.
type BackendClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

func NewBackendClient(baseURL, apiKey string, log zerolog.Logger) *BackendClient {
	return &BackendClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

// Configured reports whether the backend base URL and key are set.
func (c *BackendClient) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// FetchProfile looks up the invitation for a waid. Any failure, network
// or non-2xx, collapses into ErrProfileNotFound: the conversation layer
// treats them the same and retries on the guest's next message.
func (c *BackendClient) FetchProfile(waid string) (*entities.Profile, error) {
	if !c.Configured() {
		c.log.Warn().Msg("backend base url or api key missing")
		return nil, interfaces.ErrProfileNotFound
	}

	endpoint := fmt.Sprintf("%s/Api/WhatsApp/Invite?waid=%s", c.baseURL, url.QueryEscape(waid))
	body, err := c.get(endpoint)
	if err != nil {
		c.log.Warn().Err(err).Str("waid", waid).Msg("invite lookup failed")
		return nil, interfaces.ErrProfileNotFound
	}

	var profile entities.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		c.log.Warn().Err(err).Str("waid", waid).Msg("invite response not json")
		return nil, interfaces.ErrProfileNotFound
	}
	if profile.SeatAllowance < 1 {
		profile.SeatAllowance = 1
	}
	return &profile, nil
}

// SubmitRSVP posts the final answer for one guest.
func (c *BackendClient) SubmitRSVP(sub entities.RSVPSubmission) error {
	if !c.Configured() {
		return fmt.Errorf("backend not configured")
	}
	return c.post(c.baseURL+"/Api/WhatsApp/RSVP", sub)
}

// FetchRecipients returns the ordered campaign target list.
func (c *BackendClient) FetchRecipients(q entities.RecipientQuery) ([]entities.Recipient, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("backend not configured")
	}

	params := url.Values{}
	params.Set("fromId", strconv.FormatInt(q.FromID, 10))
	params.Set("toId", strconv.FormatInt(q.ToID, 10))
	params.Set("onlyActive", strconv.FormatBool(q.OnlyActive))
	params.Set("onlyWithPhone", strconv.FormatBool(q.OnlyWithPhone))
	params.Set("onlyNotConfirmed", strconv.FormatBool(q.OnlyNotConfirmed))
	params.Set("minDaysSinceInitial", strconv.Itoa(q.MinDaysSinceInitial))
	if q.InitialTemplateName != "" {
		params.Set("initialTemplateName", q.InitialTemplateName)
	}

	body, err := c.get(c.baseURL + "/Api/WhatsApp/Recipients?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch recipients: %w", err)
	}

	var recipients []entities.Recipient
	if err := json.Unmarshal(body, &recipients); err != nil {
		return nil, fmt.Errorf("decode recipients: %w", err)
	}
	return recipients, nil
}

// LogDelivery records one send attempt in the remote delivery log.
func (c *BackendClient) LogDelivery(e entities.DeliveryEntry) error {
	if !c.Configured() {
		return fmt.Errorf("backend not configured")
	}
	return c.post(c.baseURL+"/Api/WhatsApp/DeliveryLog", e)
}

func (c *BackendClient) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *BackendClient) post(endpoint string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

var (
	_ interfaces.ProfileGateway   = (*BackendClient)(nil)
	_ interfaces.RSVPGateway      = (*BackendClient)(nil)
	_ interfaces.RecipientGateway = (*BackendClient)(nil)
	_ interfaces.DeliveryLogger   = (*BackendClient)(nil)
)
