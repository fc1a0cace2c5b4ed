package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver/internal/config"
	"weaver/internal/game"
	"weaver/internal/narrative"
)

var segmentJSON = `{"text": "` + strings.Repeat("Rain drums on the roof of the tavern. ", 4) + `", "choices": ["Leave", "Stay"]}`

type fakeCompleter struct {
	raw      string
	err      error
	system   string
	user     string
	deadline bool
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	_, f.deadline = ctx.Deadline()
	return f.raw, f.err
}

func turnRequest() narrative.Request {
	return narrative.Request{
		Kind:      narrative.KindTurn,
		Era:       "Viking Dublin",
		EraLabel:  "Viking Dublin",
		Character: game.Character{Name: "Sigrid", Stats: game.DefaultStats()},
		Choice:    game.Choice{ID: "1", Text: "Open the door"},
	}
}

func TestClientGenerate(t *testing.T) {
	t.Run("parses response", func(t *testing.T) {
		fake := &fakeCompleter{raw: segmentJSON}
		client := NewClient(fake, time.Minute, nil)

		resp, err := client.Generate(context.Background(), turnRequest())
		require.NoError(t, err)
		assert.Len(t, resp.Choices, 2)
		assert.True(t, fake.deadline, "expected default timeout to apply")
		assert.Contains(t, fake.user, "Open the door")
		assert.NotEmpty(t, fake.system)
	})

	t.Run("transport error is wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		client := NewClient(&fakeCompleter{err: cause}, 0, nil)

		_, err := client.Generate(context.Background(), turnRequest())
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "fake")
	})

	t.Run("malformed response", func(t *testing.T) {
		client := NewClient(&fakeCompleter{raw: "no json here"}, 0, nil)
		_, err := client.Generate(context.Background(), turnRequest())
		assert.ErrorIs(t, err, narrative.ErrMalformedResponse)
	})

	t.Run("caller deadline is kept", func(t *testing.T) {
		fake := &fakeCompleter{raw: segmentJSON}
		client := NewClient(fake, 0, nil)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := client.Generate(ctx, turnRequest())
		require.NoError(t, err)
		assert.True(t, fake.deadline)
	})

	t.Run("nil client", func(t *testing.T) {
		var client *Client
		_, err := client.Generate(context.Background(), turnRequest())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestNew(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := New(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"}, nil)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(context.Background(), config.AIConfig{Provider: "oracle"}, nil)
		assert.Error(t, err)
	})
}

func TestOpenAIComplete(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = body.Model
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			http.Error(w, "expected system and user messages", http.StatusBadRequest)
			return
		}

		content, _ := json.Marshal(segmentJSON)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(content) + `}}]}`))
	}))
	defer srv.Close()

	completer, err := NewOpenAI(config.AIConfig{APIKey: "test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/", Temperature: 0.5})
	require.NoError(t, err)

	client := NewClient(completer, 5*time.Second, nil)
	resp, err := client.Generate(context.Background(), turnRequest())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gotModel)
	assert.Equal(t, "Leave", resp.Choices[0].Text)
}
