package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"selfeval/internal/model"
	"selfeval/internal/service"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTokens map[string]*model.UserClaims

func (f fakeTokens) ValidateToken(token string) (*model.UserClaims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

type fakeSurveys map[string]*model.Survey

func (f fakeSurveys) Get(_ context.Context, _ service.Actor, id string, _ bool) (*model.Survey, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, service.ErrNotFound
}

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data := <-conn.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubBroadcastsToSurveyWatchersOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())

	a := &Connection{SurveyID: "s1", UserID: "t1", Send: make(chan []byte, 4), Hub: hub}
	b := &Connection{SurveyID: "s1", UserID: "t2", Send: make(chan []byte, 4), Hub: hub}
	other := &Connection{SurveyID: "s2", UserID: "t1", Send: make(chan []byte, 4), Hub: hub}
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)
	assert.Equal(t, 2, hub.Watchers("s1"))

	hub.BroadcastToSurvey("s1", "attempt_submitted", map[string]string{"attempt_id": "a1"})

	for _, conn := range []*Connection{a, b} {
		msg := receive(t, conn)
		assert.Equal(t, MsgAttemptSubmitted, msg.Type)
		assert.JSONEq(t, `{"attempt_id":"a1"}`, string(msg.Payload))
	}
	assert.Empty(t, other.Send)

	hub.Unregister(a)
	hub.Unregister(b)
	require.Eventually(t, func() bool { return hub.Watchers("s1") == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-a.Send
	assert.False(t, open)
}

func TestSurveyFeed(t *testing.T) {
	hub := NewHub(zap.NewNop())
	tokens := fakeTokens{
		"teacher": {UserID: "t1", Role: model.RoleTeacher},
		"other":   {UserID: "t2", Role: model.RoleTeacher},
		"student": {UserID: "s1", Role: model.RoleStudent},
	}
	surveys := fakeSurveys{"survey1": {ID: "survey1", CreatedBy: "t1"}}
	h := NewHandler(hub, tokens, surveys, nil, zap.NewNop())

	r := mux.NewRouter()
	r.HandleFunc("/ws/surveys/{surveyId}", h.SurveyFeed)
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/surveys/"

	rejected := []struct {
		name   string
		url    string
		status int
	}{
		{"missing token", base + "survey1", http.StatusUnauthorized},
		{"bad token", base + "survey1?token=nope", http.StatusUnauthorized},
		{"student", base + "survey1?token=student", http.StatusForbidden},
		{"not the owner", base + "survey1?token=other", http.StatusForbidden},
		{"unknown survey", base + "missing?token=teacher", http.StatusNotFound},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"survey1?token=teacher", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Watchers("survey1") == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToSurvey("survey1", "attempt_submitted", map[string]float64{"overall": 26})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgAttemptSubmitted, msg.Type)
	assert.JSONEq(t, `{"overall":26}`, string(msg.Payload))
}
