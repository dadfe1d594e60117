// Package openai translates the generic chat-generation abstraction to and
// from the OpenAI Chat Completions API (including streaming + function/tool
// calling). It holds the static capability table for the supported models,
// builds vendor request bodies with per-model capability gating, and reduces
// vendor responses (single completions or chunk streams) back into the
// normalized Response shape.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pedi/genkit-plugins/core"
	"github.com/pedi/genkit-plugins/internal/util"
	"github.com/pedi/genkit-plugins/logging"
	"github.com/pedi/genkit-plugins/model"
)

// Translation errors. All are terminal for the call that raised them; the only
// recovered condition is a malformed tool-call argument string, which is
// passed through raw instead.
var (
	// ErrUnsupportedModel reports a model name absent from SupportedModels.
	ErrUnsupportedModel = errors.New("openai: unsupported model")
	// ErrUnmappableRole reports a message role outside the fixed enum.
	ErrUnmappableRole = errors.New("openai: unmappable role")
	// ErrUnsupportedPart reports a user-message part that is neither text nor media.
	ErrUnsupportedPart = errors.New("openai: unsupported message part")
	// ErrUnsupportedOutputFormat reports a requested output format the
	// model/version gating does not permit.
	ErrUnsupportedOutputFormat = errors.New("openai: unsupported output format")
	// ErrMalformedToolCall reports a vendor tool call without a function payload.
	ErrMalformedToolCall = errors.New("openai: malformed tool call")
)

// Options configure the OpenAI plugin.
type Options struct {
	// APIKey overrides the SDK's environment-based credential lookup.
	APIKey string
	// Logger receives debug-level translation events. Defaults to no-op.
	Logger logging.Logger
}

// Model serves one supported model identifier behind the generic model.Model
// interface. It is stateless across calls and safe for concurrent use.
type Model struct {
	client *openai.Client
	name   string
	info   model.Info
	logger logging.Logger
}

// NewModel creates a Model for a supported model name using a fresh SDK
// client.
func NewModel(name string, optFns ...func(o *Options)) (*Model, error) {
	opts := applyOptions(optFns)
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return newModel(&client, name, opts)
}

// NewModelFromClient creates a Model for a supported model name from an
// existing SDK client.
func NewModelFromClient(client *openai.Client, name string, optFns ...func(o *Options)) (*Model, error) {
	return newModel(client, name, applyOptions(optFns))
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return opts
}

func newModel(client *openai.Client, name string, opts Options) (*Model, error) {
	info, ok := SupportedModels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, name)
	}
	return &Model{client: client, name: name, info: info, logger: opts.Logger}, nil
}

// Name returns the model identifier this instance serves.
func (m *Model) Name() string { return m.name }

// Info returns the static capability descriptor.
func (m *Model) Info() *model.Info { return &m.info }

// Generate implements unified streaming / non-streaming generation. A nil
// callback performs a single completion call; a non-nil callback consumes the
// vendor chunk stream in order, surfacing each fragment before the final
// consolidated response is returned.
func (m *Model) Generate(ctx context.Context, req *model.Request, cb model.StreamCallback) (*model.Response, error) {
	params, err := buildRequest(m.name, req)
	if err != nil {
		return nil, err
	}
	jsonMode := req.Output != nil && req.Output.Format == model.OutputFormatJSON
	m.logger.Debug("built chat completion request",
		"model", string(params.Model), "messages", len(params.Messages), "stream", cb != nil)

	if cb == nil {
		resp, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai api error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai api error: no choices returned")
		}
		return translateResponse(resp, jsonMode)
	}
	return m.generateStream(ctx, params, jsonMode, cb)
}

// generateStream folds the chunk stream into per-choice aggregates, invoking
// the callback once per content-bearing fragment, then assembles the terminal
// consolidated response from the aggregates.
func (m *Model) generateStream(ctx context.Context, params openai.ChatCompletionNewParams, jsonMode bool, cb model.StreamCallback) (*model.Response, error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	aggs := map[int64]*choiceAgg{}
	var order []int64
	var id string
	var usage *model.Usage

	for stream.Next() {
		ck := stream.Current()
		if id == "" {
			id = ck.ID
		}
		if ck.JSON.Usage.Valid() {
			usage = translateUsage(ck.Usage, true)
		}
		for _, choice := range ck.Choices {
			agg, ok := aggs[choice.Index]
			if !ok {
				agg = &choiceAgg{calls: map[int64]*aggCall{}}
				aggs[choice.Index] = agg
				order = append(order, choice.Index)
			}
			if choice.FinishReason != "" {
				agg.finish = string(choice.FinishReason)
			}
			parts := agg.deltaParts(choice.Delta)
			if len(parts) == 0 {
				continue
			}
			if err := cb(ctx, &model.Chunk{Index: int(choice.Index), Content: parts}); err != nil {
				return nil, fmt.Errorf("stream callback: %w", err)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai streaming error: %w", err)
	}

	if id == "" {
		id = core.NewID()
	}
	out := &model.Response{ID: id, Usage: usage}
	for _, idx := range order {
		cand, err := aggs[idx].candidate(int(idx), jsonMode)
		if err != nil {
			return nil, err
		}
		out.Candidates = append(out.Candidates, cand)
	}
	m.logger.Debug("stream complete", "model", m.name, "candidates", len(out.Candidates))
	return out, nil
}

// ConfigSchema returns the JSON schema of the recognized generation options,
// for hosts that validate caller config before dispatch.
func ConfigSchema() map[string]any {
	return util.CreateSchema(model.GenerationConfig{})
}

// Register publishes every supported model into the host registry using a
// shared SDK client.
func Register(reg *model.Registry, optFns ...func(o *Options)) error {
	opts := applyOptions(optFns)
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	for name := range SupportedModels {
		m, err := newModel(&client, name, opts)
		if err != nil {
			return err
		}
		reg.Register(name, m.Info(), m.Generate)
	}
	return nil
}
