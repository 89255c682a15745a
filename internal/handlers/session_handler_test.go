package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionData struct {
	Session struct {
		State      string  `json:"state"`
		StoryIndex int     `json:"story_index"`
		ItemIndex  int     `json:"item_index"`
		Progress   float64 `json:"progress"`
		StoryID    string  `json:"story_id"`
		ItemID     string  `json:"item_id"`
		StoryCount int     `json:"story_count"`
	} `json:"session"`
}

func (s *testServer) session(t *testing.T, method, path, token string, body any, wantStatus int) sessionData {
	t.Helper()
	rec := s.do(t, method, path, token, body)
	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
	var data sessionData
	decodeData(t, rec, &data)
	return data
}

func TestSessions_NoStoriesToShow(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup(t, "alice")

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/sessions", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil).Code)
}

func TestSessions_PlayThroughStories(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.signup(t, "alice")
	_, bobToken := s.signup(t, "bob")
	_, carolToken := s.signup(t, "carol")
	aliceStory := s.postStory(t, aliceToken, "a1.png", "a2.png")
	carolStory := s.postStory(t, carolToken, "c1.png")
	bobStory := s.postStory(t, bobToken, "b1.png")

	// bob's own story comes last
	data := s.session(t, http.MethodPost, "/api/v1/sessions", bobToken, models.StartSessionRequest{}, http.StatusCreated)
	assert.Equal(t, "playing", data.Session.State)
	assert.Equal(t, 3, data.Session.StoryCount)
	assert.Equal(t, aliceStory.ID, data.Session.StoryID)
	assert.Equal(t, aliceStory.Items[0].ID, data.Session.ItemID)

	data = s.session(t, http.MethodPost, "/api/v1/sessions/current/next", bobToken, nil, http.StatusOK)
	assert.Equal(t, aliceStory.Items[1].ID, data.Session.ItemID)

	data = s.session(t, http.MethodPost, "/api/v1/sessions/current/pause", bobToken, nil, http.StatusOK)
	assert.Equal(t, "paused", data.Session.State)

	data = s.session(t, http.MethodPost, "/api/v1/sessions/current/next-story", bobToken, nil, http.StatusOK)
	assert.Equal(t, carolStory.ID, data.Session.StoryID)
	assert.Equal(t, "paused", data.Session.State)

	data = s.session(t, http.MethodPost, "/api/v1/sessions/current/prev", bobToken, nil, http.StatusOK)
	assert.Equal(t, aliceStory.Items[0].ID, data.Session.ItemID)

	data = s.session(t, http.MethodPost, "/api/v1/sessions/current/jump", bobToken, models.JumpRequest{ItemIndex: 1}, http.StatusOK)
	assert.Equal(t, aliceStory.Items[1].ID, data.Session.ItemID)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/sessions/current/jump", bobToken, models.JumpRequest{ItemIndex: 7}).Code)

	s.session(t, http.MethodPost, "/api/v1/sessions/current/next-story", bobToken, nil, http.StatusOK)
	data = s.session(t, http.MethodPost, "/api/v1/sessions/current/next-story", bobToken, nil, http.StatusOK)
	assert.Equal(t, bobStory.ID, data.Session.StoryID)

	data = s.session(t, http.MethodPost, "/api/v1/sessions/current/prev-story", bobToken, nil, http.StatusOK)
	assert.Equal(t, carolStory.ID, data.Session.StoryID)

	data = s.session(t, http.MethodGet, "/api/v1/sessions/current", bobToken, nil, http.StatusOK)
	assert.Equal(t, carolStory.ID, data.Session.StoryID)

	// every item shown was recorded as viewed by bob
	stats := s.tracker.ComputeStats(context.Background(), aliceStory.Author.ID, aliceStory.ID)
	assert.Equal(t, 1, stats.Views)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/v1/sessions/current", bobToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/sessions/current", bobToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/sessions/current", bobToken, nil).Code)
}

func TestSessions_StartAtStory(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.signup(t, "alice")
	_, bobToken := s.signup(t, "bob")
	s.postStory(t, aliceToken, "a1.png")
	bobStory := s.postStory(t, bobToken, "b1.png")

	data := s.session(t, http.MethodPost, "/api/v1/sessions", aliceToken, models.StartSessionRequest{StoryID: bobStory.ID}, http.StatusCreated)
	assert.Equal(t, bobStory.ID, data.Session.StoryID)
	assert.Equal(t, 0, data.Session.StoryIndex)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/sessions", aliceToken, models.StartSessionRequest{StoryID: "missing"}).Code)
}

func TestSessions_FinishingClosesSession(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.signup(t, "alice")
	_, bobToken := s.signup(t, "bob")
	s.postStory(t, aliceToken, "a1.png")

	s.session(t, http.MethodPost, "/api/v1/sessions", bobToken, nil, http.StatusCreated)
	player, ok := s.sessions.Current("2")
	require.True(t, ok)

	data := s.session(t, http.MethodPost, "/api/v1/sessions/current/next", bobToken, nil, http.StatusOK)
	assert.Equal(t, playback.StateFinished.String(), data.Session.State)
	<-player.Done()
}
