package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomepageShowsOwnMessages(t *testing.T) {
	_, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)

	ada.post("/messages/new", url.Values{"text": {"my own warble"}})

	body := ada.getBody("/")
	assert.Contains(t, body, "my own warble")
}

func TestHomepageFeedLimit(t *testing.T) {
	s, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)
	adaID := userID(t, s, "ada")

	ctx := context.Background()
	for i := 0; i < homeFeedLimit+20; i++ {
		msg := &models.Message{Text: fmt.Sprintf("warble %d", i), UserID: adaID}
		require.NoError(t, s.messageRepo.Create(ctx, msg))
	}

	body := ada.getBody("/")
	assert.Equal(t, homeFeedLimit, strings.Count(body, "warble "))
}

func TestHealthEndpoints(t *testing.T) {
	_, app := setupTestServer(t)
	client := newTestClient(t, app)

	resp := client.get("/health/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.get("/health/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestResponsesAreUncacheable(t *testing.T) {
	_, app := setupTestServer(t)
	client := newTestClient(t, app)

	resp := client.get("/")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	_ = resp.Body.Close()
}
