// Package anthropic translates the generic chat-generation abstraction to and
// from the Anthropic Messages API. Tool use is supported on the non-streaming
// path; media input, structured (JSON) output and streaming are not offered
// by this plugin.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/pedi/genkit-plugins/core"
	"github.com/pedi/genkit-plugins/model"
)

// Provider is the identifier under which this plugin registers its models.
const Provider = "anthropic"

// ErrStreamingUnsupported reports a streaming callback passed to this plugin.
var ErrStreamingUnsupported = errors.New("anthropic: streaming not supported")

// defaultMaxTokens is sent when the caller leaves maxOutputTokens unset; the
// Messages API requires the field.
const defaultMaxTokens = 4096

var claude = model.Supports{
	Multiturn:  true,
	Tools:      true,
	SystemRole: true,
	Output:     []model.OutputFormat{model.OutputFormatText},
}

// SupportedModels is the static capability table keyed by exact model name.
var SupportedModels = map[string]model.Info{
	"claude-3-5-sonnet": {
		Label:    "Claude 3.5 Sonnet",
		Versions: []string{"claude-3-5-sonnet-20241022", "claude-3-5-sonnet-20240620"},
		Supports: &claude,
	},
	"claude-3-5-haiku": {
		Label:    "Claude 3.5 Haiku",
		Versions: []string{"claude-3-5-haiku-20241022"},
		Supports: &claude,
	},
	"claude-3-opus": {
		Label:    "Claude 3 Opus",
		Versions: []string{"claude-3-opus-20240229"},
		Supports: &claude,
	},
}

// Options configure the Anthropic plugin.
type Options struct {
	// APIKey overrides the SDK's environment-based credential lookup.
	APIKey string
}

// Model serves one supported model identifier behind the generic model.Model
// interface.
type Model struct {
	client *anthropic.Client
	name   string
	info   model.Info
}

// NewModel creates a Model for a supported model name using a fresh SDK
// client.
func NewModel(name string, optFns ...func(o *Options)) (*Model, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return NewModelFromClient(&client, name)
}

// NewModelFromClient creates a Model for a supported model name from an
// existing SDK client.
func NewModelFromClient(client *anthropic.Client, name string) (*Model, error) {
	info, ok := SupportedModels[name]
	if !ok {
		return nil, fmt.Errorf("anthropic: unsupported model %q", name)
	}
	return &Model{client: client, name: name, info: info}, nil
}

// Name returns the model identifier this instance serves.
func (m *Model) Name() string { return m.name }

// Info returns the static capability descriptor.
func (m *Model) Info() *model.Info { return &m.info }

// Generate implements non-streaming generation against the Messages API.
// A non-nil callback fails fast with ErrStreamingUnsupported.
// TODO: add streaming via anthropic.MessageStreamEvent aggregation.
func (m *Model) Generate(ctx context.Context, req *model.Request, cb model.StreamCallback) (*model.Response, error) {
	if cb != nil {
		return nil, ErrStreamingUnsupported
	}

	version := m.info.DefaultVersion()
	if req.Config != nil && req.Config.Version != "" {
		version = req.Config.Version
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(version),
		Messages:  buildMessages(req.Messages),
		MaxTokens: defaultMaxTokens,
	}
	if req.Config != nil {
		if req.Config.MaxOutputTokens != nil {
			params.MaxTokens = *req.Config.MaxOutputTokens
		}
		if req.Config.Temperature != nil {
			params.Temperature = anthropic.Float(*req.Config.Temperature)
		}
		if req.Config.TopP != nil {
			params.TopP = anthropic.Float(*req.Config.TopP)
		}
		if len(req.Config.StopSequences) > 0 {
			params.StopSequences = req.Config.StopSequences
		}
	}
	if systemBlocks := extractSystem(req.Messages); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}
	return translateResponse(resp), nil
}

// translateResponse converts a Messages API response into the generic shape.
func translateResponse(resp *anthropic.Message) *model.Response {
	var parts []core.Part
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text != "" {
				parts = append(parts, core.TextPart{Text: textBlock.Text})
			}
		case "tool_use":
			toolBlock := block.AsToolUse()
			var input any
			if toolBlock.Input != nil {
				if b, err := json.Marshal(toolBlock.Input); err == nil {
					if err := json.Unmarshal(b, &input); err != nil {
						input = string(b)
					}
				}
			}
			parts = append(parts, core.ToolRequestPart{ToolRequest: core.ToolRequest{
				Ref:   toolBlock.ID,
				Name:  toolBlock.Name,
				Input: input,
			}})
		}
	}

	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	total := in + out

	id := resp.ID
	if id == "" {
		id = core.NewID()
	}
	return &model.Response{
		ID: id,
		Candidates: []*model.Candidate{{
			Index:        0,
			FinishReason: finishReason(string(resp.StopReason)),
			Message:      &core.Message{Role: core.RoleModel, Parts: parts},
			Custom:       resp,
		}},
		Usage:  &model.Usage{InputTokens: &in, OutputTokens: &out, TotalTokens: &total},
		Custom: resp,
	}
}

// finishReason maps Messages API stop reasons onto the normalized enum.
func finishReason(vendor string) model.FinishReason {
	switch vendor {
	case "end_turn", "stop_sequence", "tool_use":
		return model.FinishReasonStop
	case "max_tokens":
		return model.FinishReasonLength
	default:
		return model.FinishReasonOther
	}
}

// buildMessages converts normalized messages to Anthropic message params.
// System messages are handled separately; tool responses are embedded after
// their originating tool calls.
func buildMessages(messages []*core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam

	toolResponses := make(map[string]string)
	for _, msg := range messages {
		if msg.Role != core.RoleTool {
			continue
		}
		for _, p := range msg.Parts {
			tr, ok := p.(core.ToolResponsePart)
			if !ok || tr.ToolResponse.Ref == "" {
				continue
			}
			if s, ok := tr.ToolResponse.Output.(string); ok {
				toolResponses[tr.ToolResponse.Ref] = s
			} else if b, err := json.Marshal(tr.ToolResponse.Output); err == nil {
				toolResponses[tr.ToolResponse.Ref] = string(b)
			}
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem, core.RoleTool:
			continue
		case core.RoleModel:
			content := buildModelContent(msg.Parts, toolResponses)
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		default:
			content := buildUserContent(msg.Parts)
			if len(content) > 0 {
				out = append(out, anthropic.NewUserMessage(content...))
			}
		}
	}

	return out
}

// extractSystem collects system text blocks.
func extractSystem(messages []*core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range messages {
		if msg.Role != core.RoleSystem {
			continue
		}
		for _, p := range msg.Parts {
			if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
				blocks = append(blocks, anthropic.TextBlockParam{Text: tp.Text})
			}
		}
	}
	return blocks
}

// buildUserContent builds content blocks for user messages. Only text parts
// carry over; the capability table flags media as unsupported here.
func buildUserContent(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
			content = append(content, anthropic.NewTextBlock(tp.Text))
		}
	}
	return content
}

// buildModelContent builds content blocks for assistant messages, appending
// matching tool results right after their tool-use blocks.
func buildModelContent(parts []core.Part, toolResponses map[string]string) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	var toolCallRefs []string

	for _, p := range parts {
		switch x := p.(type) {
		case core.TextPart:
			if x.Text != "" {
				content = append(content, anthropic.NewTextBlock(x.Text))
			}
		case core.ToolRequestPart:
			content = append(content, anthropic.NewToolUseBlock(
				x.ToolRequest.Ref,
				x.ToolRequest.Input,
				x.ToolRequest.Name,
			))
			toolCallRefs = append(toolCallRefs, x.ToolRequest.Ref)
		}
	}

	for _, ref := range toolCallRefs {
		if resp, ok := toolResponses[ref]; ok {
			content = append(content, anthropic.NewToolResultBlock(ref, resp, false))
			delete(toolResponses, ref)
		}
	}

	return content
}

// buildTools converts normalized tool definitions to the Messages API format.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if t.InputSchema != nil {
			if properties, exists := t.InputSchema["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := t.InputSchema["required"]; exists {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []any:
					var reqStrings []string
					for _, r := range req {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
	}
	return out
}

// Register publishes every supported model into the host registry using a
// shared SDK client.
func Register(reg *model.Registry, optFns ...func(o *Options)) error {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	for name := range SupportedModels {
		m, err := NewModelFromClient(&client, name)
		if err != nil {
			return err
		}
		reg.Register(name, m.Info(), m.Generate)
	}
	return nil
}
