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
)

func TestSendTextPostsCloudAPIPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Write([]byte(`{"messages":[{"id":"wamid.ABC"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("token-123", "555000", zerolog.Nop()).WithBaseURL(server.URL)

	id, err := client.SendText("5211111111111", "hola")

	require.NoError(t, err)
	assert.Equal(t, "wamid.ABC", id)
	assert.Equal(t, "/555000/messages", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "whatsapp", gotBody["messaging_product"])
	assert.Equal(t, "5211111111111", gotBody["to"])
	assert.Equal(t, "text", gotBody["type"])
	text := gotBody["text"].(map[string]interface{})
	assert.Equal(t, "hola", text["body"])
}

func TestSendTemplateIncludesBodyParameters(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Write([]byte(`{"messages":[{"id":"wamid.T1"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("token", "555000", zerolog.Nop()).WithBaseURL(server.URL)

	id, err := client.SendTemplate("5211111111111", "save_the_date", "es_MX", []string{"Ana"})

	require.NoError(t, err)
	assert.Equal(t, "wamid.T1", id)
	assert.Equal(t, "template", gotBody["type"])

	template := gotBody["template"].(map[string]interface{})
	assert.Equal(t, "save_the_date", template["name"])
	language := template["language"].(map[string]interface{})
	assert.Equal(t, "es_MX", language["code"])

	components := template["components"].([]interface{})
	require.Len(t, components, 1)
	component := components[0].(map[string]interface{})
	assert.Equal(t, "body", component["type"])
	params := component["parameters"].([]interface{})
	require.Len(t, params, 1)
	param := params[0].(map[string]interface{})
	assert.Equal(t, "Ana", param["text"])
}

func TestSendReturnsErrorOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("bad", "555000", zerolog.Nop()).WithBaseURL(server.URL)

	_, err := client.SendText("5211111111111", "hola")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}

func TestConfigured(t *testing.T) {
	assert.True(t, NewWhatsAppClient("t", "p", zerolog.Nop()).Configured())
	assert.False(t, NewWhatsAppClient("", "p", zerolog.Nop()).Configured())
	assert.False(t, NewWhatsAppClient("t", "", zerolog.Nop()).Configured())
}
