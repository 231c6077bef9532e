package infrastructure

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvpbot/internal/entities"
	"rsvpbot/internal/interfaces"
)

func TestFetchProfileSendsAPIKeyAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Api/WhatsApp/Invite", r.URL.Path)
		assert.Equal(t, "5211111111111", r.URL.Query().Get("waid"))
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"displayName":"Ana","accessCode":"ED-042","invitationUrl":"https://x/i","seatAllowance":4}`))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, "secret", zerolog.Nop())

	profile, err := client.FetchProfile("5211111111111")

	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.DisplayName)
	assert.Equal(t, 4, profile.SeatAllowance)
}

func TestFetchProfileDefaultsSeatAllowance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"displayName":"Ana"}`))
	}))
	defer server.Close()

	profile, err := NewBackendClient(server.URL, "k", zerolog.Nop()).FetchProfile("5211111111111")

	require.NoError(t, err)
	assert.Equal(t, 1, profile.SeatAllowance)
}

func TestFetchProfileFoldsFailuresIntoNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewBackendClient(server.URL, "k", zerolog.Nop()).FetchProfile("5211111111111")
	assert.ErrorIs(t, err, interfaces.ErrProfileNotFound)

	// unconfigured client degrades the same way
	_, err = NewBackendClient("", "", zerolog.Nop()).FetchProfile("5211111111111")
	assert.ErrorIs(t, err, interfaces.ErrProfileNotFound)
}

func TestSubmitRSVPPostsJSON(t *testing.T) {
	var got entities.RSVPSubmission

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Api/WhatsApp/RSVP", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, "secret", zerolog.Nop())

	err := client.SubmitRSVP(entities.RSVPSubmission{
		WaID:      "5211111111111",
		Attending: true,
		PartySize: 3,
		Message:   "felicidades",
	})

	require.NoError(t, err)
	assert.Equal(t, "5211111111111", got.WaID)
	assert.True(t, got.Attending)
	assert.Equal(t, 3, got.PartySize)
	assert.Equal(t, "felicidades", got.Message)
}

func TestSubmitRSVPReturnsBackendErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewBackendClient(server.URL, "k", zerolog.Nop()).SubmitRSVP(entities.RSVPSubmission{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchRecipientsBuildsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Api/WhatsApp/Recipients", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("fromId"))
		assert.Equal(t, "50", q.Get("toId"))
		assert.Equal(t, "true", q.Get("onlyWithPhone"))
		assert.Equal(t, "true", q.Get("onlyNotConfirmed"))
		assert.Equal(t, "7", q.Get("minDaysSinceInitial"))
		assert.Equal(t, "save_the_date", q.Get("initialTemplateName"))
		w.Write([]byte(`[{"internalId":1,"to":"5211111111111","displayName":"Ana"},{"internalId":2,"displayName":"Sin Tel"}]`))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, "secret", zerolog.Nop())

	list, err := client.FetchRecipients(entities.RecipientQuery{
		FromID:              1,
		ToID:                50,
		OnlyActive:          true,
		OnlyWithPhone:       true,
		OnlyNotConfirmed:    true,
		MinDaysSinceInitial: 7,
		InitialTemplateName: "save_the_date",
	})

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].DisplayName)
	assert.Empty(t, list[1].To)
}

func TestLogDeliveryPostsEntry(t *testing.T) {
	var got entities.DeliveryEntry

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Api/WhatsApp/DeliveryLog", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, "secret", zerolog.Nop())

	err := client.LogDelivery(entities.DeliveryEntry{
		InternalID:        9,
		Status:            entities.DeliverySent,
		ProviderMessageID: "wamid.X",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(9), got.InternalID)
	assert.Equal(t, entities.DeliverySent, got.Status)
}
