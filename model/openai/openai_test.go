package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedi/genkit-plugins/core"
	"github.com/pedi/genkit-plugins/internal/testutil"
	"github.com/pedi/genkit-plugins/model"
)

func TestSupportedModels_Descriptors(t *testing.T) {
	for name, info := range SupportedModels {
		require.NotNil(t, info.Supports, "model %s", name)
		assert.NotEmpty(t, info.Supports.Output, "model %s declares no output formats", name)
		assert.NotEmpty(t, info.Versions, "model %s has no versions", name)
		assert.NotEmpty(t, info.Label, "model %s has no label", name)
	}
}

func TestSupportedModels_ToolSurvivalMatchesDescriptor(t *testing.T) {
	req := testutil.NewRequest().
		WithUser("hi").
		WithTools(model.ToolDefinition{Name: "probe", InputSchema: map[string]any{"type": "object"}}).
		Build()

	for name, info := range SupportedModels {
		params, err := buildRequest(name, req)
		require.NoError(t, err, "model %s", name)
		survived := len(params.Tools) > 0
		assert.Equal(t, info.Supports.Tools, survived,
			"model %s: tools flag and built request disagree", name)
	}
}

func TestSupportedModels_AllowListVersionsAreKnown(t *testing.T) {
	known := map[string]bool{}
	for _, info := range SupportedModels {
		for _, v := range info.Versions {
			known[v] = true
		}
	}
	for v := range responseFormatVersions {
		assert.True(t, known[v], "allow-listed version %q not in any descriptor", v)
	}
}

func TestNewModel_UnsupportedName(t *testing.T) {
	_, err := NewModel("gpt-imaginary")
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestModel_NameAndInfo(t *testing.T) {
	m, err := NewModel("gpt-4o", func(o *Options) { o.APIKey = "test" })
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m.Name())
	assert.True(t, m.Info().Supports.Media)
}

func TestConfigSchema(t *testing.T) {
	schema := ConfigSchema()
	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]any)
	for _, key := range []string{"temperature", "topP", "maxOutputTokens", "version"} {
		assert.Contains(t, props, key)
	}
}

// newTestModel wires a Model against a local test server.
func newTestModel(t *testing.T, name string, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL))
	m, err := NewModelFromClient(&client, name)
	require.NoError(t, err)
	return m
}

func TestGenerate_NonStreaming(t *testing.T) {
	var gotBody map[string]any
	m := newTestModel(t, "gpt-4o", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-live",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "pong"}
			}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`)
	})

	resp, err := m.Generate(context.Background(), testutil.NewRequest().WithUser("ping").Build(), nil)
	require.NoError(t, err)

	// The request that went over the wire carried the user turn.
	msgs := gotBody["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "ping", msgs[0].(map[string]any)["content"])

	assert.Equal(t, "chatcmpl-live", resp.ID)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "pong", resp.Candidates[0].Text())
	assert.Equal(t, model.FinishReasonStop, resp.Candidates[0].FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(2), *resp.Usage.TotalTokens)
}

func TestGenerate_TextRoundTrip(t *testing.T) {
	// A text-only request whose content the server echoes back verbatim
	// reduces to a candidate with exactly the original text.
	m := newTestModel(t, "gpt-4o", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		msgs := body["messages"].([]any)
		echoed := msgs[len(msgs)-1].(map[string]any)["content"].(string)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-echo",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": echoed},
			}},
		}))
	})

	req := testutil.NewRequest().
		WithMessage(&core.Message{Role: core.RoleUser, Parts: []core.Part{
			core.TextPart{Text: "first "},
			core.TextPart{Text: "second"},
		}}).
		Build()
	resp, err := m.Generate(context.Background(), req, nil)
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, req.Messages[0].Text(), resp.Candidates[0].Text())
}

func TestGenerate_NoChoices(t *testing.T) {
	m := newTestModel(t, "gpt-4o", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "chatcmpl-empty", "object": "chat.completion", "model": "gpt-4o", "choices": []}`)
	})

	_, err := m.Generate(context.Background(), testutil.NewRequest().WithUser("hi").Build(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerate_BuildErrorShortCircuits(t *testing.T) {
	m := newTestModel(t, "gpt-4-vision", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the server")
	})

	req := testutil.NewRequest().WithUser("hi").WithOutput(model.OutputFormatJSON).Build()
	_, err := m.Generate(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrUnsupportedOutputFormat)
}

func sseHandler(events ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			fmt.Fprintf(w, "data: %s\n\n", ev)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func TestGenerate_Streaming(t *testing.T) {
	m := newTestModel(t, "gpt-4o", sseHandler(
		`{"id":"chatcmpl-s1","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{"id":"chatcmpl-s1","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`{"id":"chatcmpl-s1","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	))

	var chunks []*model.Chunk
	resp, err := m.Generate(context.Background(), testutil.NewRequest().WithUser("hi").Build(),
		func(ctx context.Context, ck *model.Chunk) error {
			chunks = append(chunks, ck)
			return nil
		})
	require.NoError(t, err)

	// One callback per content-bearing fragment, in arrival order.
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, core.TextPart{Text: "Hel"}, chunks[0].Content[0])
	assert.Equal(t, core.TextPart{Text: "lo"}, chunks[1].Content[0])

	assert.Equal(t, "chatcmpl-s1", resp.ID)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "Hello", resp.Candidates[0].Text())
	assert.Equal(t, model.FinishReasonStop, resp.Candidates[0].FinishReason)
}

func TestGenerate_StreamingToolCalls(t *testing.T) {
	m := newTestModel(t, "gpt-4o", sseHandler(
		`{"id":"chatcmpl-s2","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city\""}}]}}]}`,
		`{"id":"chatcmpl-s2","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":":\"Berlin\"}"}}]}}]}`,
		`{"id":"chatcmpl-s2","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	))

	var calls int
	resp, err := m.Generate(context.Background(), testutil.NewRequest().WithUser("weather?").Build(),
		func(ctx context.Context, ck *model.Chunk) error {
			calls++
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.Len(t, resp.Candidates, 1)
	cand := resp.Candidates[0]
	assert.Equal(t, model.FinishReasonStop, cand.FinishReason)
	require.Len(t, cand.Message.Parts, 1)
	tr := cand.Message.Parts[0].(core.ToolRequestPart).ToolRequest
	assert.Equal(t, "call_1", tr.Ref)
	assert.Equal(t, "get_weather", tr.Name)
	assert.Equal(t, map[string]any{"city": "Berlin"}, tr.Input)
}

func TestGenerate_StreamingCallbackError(t *testing.T) {
	m := newTestModel(t, "gpt-4o", sseHandler(
		`{"id":"chatcmpl-s3","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"a"}}]}`,
		`{"id":"chatcmpl-s3","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"content":"b"}}]}`,
	))

	wantErr := fmt.Errorf("consumer gave up")
	_, err := m.Generate(context.Background(), testutil.NewRequest().WithUser("hi").Build(),
		func(ctx context.Context, ck *model.Chunk) error {
			return wantErr
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestGenerate_StreamingUsage(t *testing.T) {
	m := newTestModel(t, "gpt-4o", sseHandler(
		`{"id":"chatcmpl-s4","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"ok"}}]}`,
		`{"id":"chatcmpl-s4","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"id":"chatcmpl-s4","object":"chat.completion.chunk","model":"gpt-4o","choices":[],"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`,
	))

	resp, err := m.Generate(context.Background(), testutil.NewRequest().WithUser("hi").Build(),
		func(ctx context.Context, ck *model.Chunk) error { return nil })
	require.NoError(t, err)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(5), *resp.Usage.InputTokens)
	assert.Equal(t, int64(6), *resp.Usage.TotalTokens)
}

func TestRegister(t *testing.T) {
	reg := model.NewRegistry()
	require.NoError(t, Register(reg, func(o *Options) { o.APIKey = "test" }))

	for name := range SupportedModels {
		entry, err := reg.Lookup(name)
		require.NoError(t, err, "model %s", name)
		assert.Equal(t, name, entry.Name)
		require.NotNil(t, entry.Info)
	}
}
