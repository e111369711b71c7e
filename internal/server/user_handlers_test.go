package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userID(t *testing.T, s *Server, username string) uint {
	t.Helper()
	user, err := s.userRepo.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.ID
}

func TestFollowFeedAndAccountDeletion(t *testing.T) {
	s, app := setupTestServer(t)

	ada := newTestClient(t, app)
	resp := ada.signup("ada", "ada@example.com", "secret1")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	grace := newTestClient(t, app)
	resp = grace.signup("grace", "grace@example.com", "secret1")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	graceID := userID(t, s, "grace")

	resp = grace.post("/messages/new", url.Values{"text": {"warbling into the void"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	// Before following, grace's message is not in ada's feed.
	body := ada.getBody("/")
	assert.NotContains(t, body, "warbling into the void")

	resp = ada.post(fmt.Sprintf("/users/follow/%d", graceID), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	body = ada.getBody("/")
	assert.Contains(t, body, "warbling into the void")

	// Grace deletes her account; her content vanishes from ada's feed and
	// her profile 404s.
	resp = grace.post("/users/delete", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signup", resp.Header.Get("Location"))

	body = ada.getBody("/")
	assert.NotContains(t, body, "warbling into the void")

	resp = ada.get(fmt.Sprintf("/users/%d", graceID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowSelfRejected(t *testing.T) {
	s, app := setupTestServer(t)

	ada := newTestClient(t, app)
	resp := ada.signup("ada", "ada@example.com", "secret1")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	adaID := userID(t, s, "ada")

	resp = ada.post(fmt.Sprintf("/users/follow/%d", adaID), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var count int64
	s.db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count)
}

func TestUnfollow(t *testing.T) {
	s, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)
	grace := newTestClient(t, app)
	require.Equal(t, http.StatusFound, grace.signup("grace", "grace@example.com", "secret1").StatusCode)
	graceID := userID(t, s, "grace")

	ada.post(fmt.Sprintf("/users/follow/%d", graceID), nil)

	resp := ada.post(fmt.Sprintf("/users/stop-following/%d", graceID), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var count int64
	s.db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count)

	// Unfollowing again is harmless.
	resp = ada.post(fmt.Sprintf("/users/stop-following/%d", graceID), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	// Unfollowing a user that does not exist is a 404, not a silent redirect.
	resp = ada.post("/users/stop-following/99999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserSearch(t *testing.T) {
	_, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)
	grace := newTestClient(t, app)
	require.Equal(t, http.StatusFound, grace.signup("grace", "grace@example.com", "secret1").StatusCode)

	body := ada.getBody("/users?q=gra")
	assert.Contains(t, body, "@grace")
	assert.NotContains(t, body, "@ada")

	body = ada.getBody("/users")
	assert.Contains(t, body, "@grace")
	assert.Contains(t, body, "@ada")

	body = ada.getBody("/users?q=zzz")
	assert.Contains(t, body, "Sorry, no users found")
}

func TestUpdateProfile(t *testing.T) {
	s, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)
	adaID := userID(t, s, "ada")

	resp := ada.post("/users/profile", url.Values{
		"username": {"ada_l"},
		"email":    {"ada@example.com"},
		"bio":      {"analytical engines"},
		"location": {"London"},
		"password": {"secret1"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/users/%d", adaID), resp.Header.Get("Location"))

	user, err := s.userRepo.GetByID(context.Background(), adaID)
	require.NoError(t, err)
	assert.Equal(t, "ada_l", user.Username)
	assert.Equal(t, "analytical engines", user.Bio)
	assert.Equal(t, "London", user.Location)
	// Cleared image fields fall back to the defaults.
	assert.Equal(t, models.DefaultImageURL, user.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, user.HeaderImageURL)

	// The password hash is untouched; the old password still works.
	authed, err := s.userRepo.Authenticate(context.Background(), "ada_l", "secret1")
	require.NoError(t, err)
	require.NotNil(t, authed)
}

func TestUpdateProfileWrongPassword(t *testing.T) {
	s, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)

	resp := ada.post("/users/profile", url.Values{
		"username": {"ada_l"},
		"email":    {"ada@example.com"},
		"password": {"wrong-1"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Password Incorrect")

	user, err := s.userRepo.GetByUsername(context.Background(), "ada")
	require.NoError(t, err)
	require.NotNil(t, user, "username unchanged after rejected update")
}

func TestUpdateProfileTakenUsername(t *testing.T) {
	_, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)
	grace := newTestClient(t, app)
	require.Equal(t, http.StatusFound, grace.signup("grace", "grace@example.com", "secret1").StatusCode)

	resp := grace.post("/users/profile", url.Values{
		"username": {"ada"},
		"email":    {"grace@example.com"},
		"password": {"secret1"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Username or Email taken")
}

func TestShowUserPagesAnd404(t *testing.T) {
	s, app := setupTestServer(t)

	ada := newTestClient(t, app)
	require.Equal(t, http.StatusFound, ada.signup("ada", "ada@example.com", "secret1").StatusCode)
	adaID := userID(t, s, "ada")

	body := ada.getBody(fmt.Sprintf("/users/%d", adaID))
	assert.Contains(t, body, "@ada")

	for _, path := range []string{
		fmt.Sprintf("/users/%d/following", adaID),
		fmt.Sprintf("/users/%d/followers", adaID),
		fmt.Sprintf("/users/%d/liked-messages", adaID),
	} {
		resp := ada.get(path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)
		_ = resp.Body.Close()
	}

	resp := ada.get("/users/99999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ada.get("/users/99999/following")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
