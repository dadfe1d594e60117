package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/pedi/genkit-plugins/core"
	"github.com/pedi/genkit-plugins/model"
)

// buildRequest converts a normalized request into Chat Completion parameters,
// applying the capability gates of the named model. Unset config fields are
// never set on the params struct, so the SDK omits them on the wire.
func buildRequest(modelName string, req *model.Request) (openai.ChatCompletionNewParams, error) {
	var params openai.ChatCompletionNewParams

	info, ok := SupportedModels[modelName]
	if !ok {
		return params, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelName)
	}

	detail := model.VisualDetailLevelAuto
	if req.Config != nil && req.Config.VisualDetailLevel != "" {
		detail = req.Config.VisualDetailLevel
	}

	messages, err := buildMessages(req.Messages, detail)
	if err != nil {
		return params, err
	}

	version := resolveVersion(&info, req.Config, modelName)
	params.Model = shared.ChatModel(version)
	params.Messages = messages

	applyConfig(&params, req.Config)

	// Tool definitions survive only for models whose descriptor declares
	// tool support.
	if len(req.Tools) > 0 && info.Supports != nil && info.Supports.Tools {
		params.Tools = buildTools(req.Tools)
	}

	if req.Output != nil && req.Output.Format != "" {
		rf, err := responseFormat(version, &info, req.Output.Format)
		if err != nil {
			return params, err
		}
		params.ResponseFormat = rf
	}

	return params, nil
}

// resolveVersion picks the effective model version: explicit config override,
// else descriptor default, else the raw model name.
func resolveVersion(info *model.Info, cfg *model.GenerationConfig, modelName string) string {
	if cfg != nil && cfg.Version != "" {
		return cfg.Version
	}
	if v := info.DefaultVersion(); v != "" {
		return v
	}
	return modelName
}

// buildMessages converts normalized messages into vendor chat messages. A tool
// message fans out into one vendor message per tool-response part.
func buildMessages(messages []*core.Message, detail model.VisualDetailLevel) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Text()))
		case core.RoleUser:
			um, err := userMessage(msg, detail)
			if err != nil {
				return nil, err
			}
			out = append(out, um)
		case core.RoleModel:
			am, err := assistantMessage(msg)
			if err != nil {
				return nil, err
			}
			out = append(out, am)
		case core.RoleTool:
			for _, p := range msg.Parts {
				tr, ok := p.(core.ToolResponsePart)
				if !ok {
					continue
				}
				text, err := toolOutputText(tr.ToolResponse.Output)
				if err != nil {
					return nil, err
				}
				out = append(out, openai.ToolMessage(text, tr.ToolResponse.Ref))
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnmappableRole, msg.Role)
		}
	}
	return out, nil
}

// userMessage builds a user message from text and media parts. Text-only
// content collapses to a plain string message.
func userMessage(msg *core.Message, detail model.VisualDetailLevel) (openai.ChatCompletionMessageParamUnion, error) {
	var parts []openai.ChatCompletionContentPartUnionParam
	hasMedia := false
	for _, p := range msg.Parts {
		switch x := p.(type) {
		case core.TextPart:
			parts = append(parts, openai.TextContentPart(x.Text))
		case core.MediaPart:
			hasMedia = true
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL:    x.URL,
				Detail: string(detail),
			}))
		default:
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: %T in user message", ErrUnsupportedPart, p)
		}
	}
	if !hasMedia {
		return openai.UserMessage(msg.Text()), nil
	}
	return openai.UserMessage(parts), nil
}

// assistantMessage builds an assistant message. Tool requests take precedence:
// when any are present the message carries only the tool-call list.
func assistantMessage(msg *core.Message) (openai.ChatCompletionMessageParamUnion, error) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, p := range msg.Parts {
		tr, ok := p.(core.ToolRequestPart)
		if !ok {
			continue
		}
		args, err := marshalToolInput(tr.ToolRequest.Input)
		if err != nil {
			return openai.ChatCompletionMessageParamUnion{}, err
		}
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   tr.ToolRequest.Ref,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tr.ToolRequest.Name,
				Arguments: args,
			},
		})
	}
	if len(toolCalls) == 0 {
		return openai.AssistantMessage(msg.Text()), nil
	}
	return openai.ChatCompletionMessageParamUnion{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Role:      "assistant",
			ToolCalls: toolCalls,
		},
	}, nil
}

// marshalToolInput serializes tool-request input to the vendor's argument
// string form.
func marshalToolInput(input any) (string, error) {
	if input == nil {
		return "", nil
	}
	b, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal tool input: %w", err)
	}
	return string(b), nil
}

// toolOutputText passes string outputs through verbatim and serializes
// everything else as JSON.
func toolOutputText(output any) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("marshal tool output: %w", err)
	}
	return string(b), nil
}

// buildTools maps tool definitions 1:1 to vendor tool descriptors.
func buildTools(tools []model.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		fn := openai.FunctionDefinitionParam{
			Name:       t.Name,
			Parameters: t.InputSchema,
		}
		if t.Description != "" {
			fn.Description = openai.String(t.Description)
		}
		out[i] = openai.ChatCompletionToolParam{Type: "function", Function: fn}
	}
	return out
}

// applyConfig maps sampling options onto vendor parameter names. Logprobs and
// TopLogprobs keep the vendor's irregular field names ("logprobs",
// "top_logprobs").
func applyConfig(params *openai.ChatCompletionNewParams, cfg *model.GenerationConfig) {
	if cfg == nil {
		return
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		params.TopP = openai.Float(*cfg.TopP)
	}
	if cfg.MaxOutputTokens != nil {
		params.MaxTokens = openai.Int(*cfg.MaxOutputTokens)
	}
	if len(cfg.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: cfg.StopSequences}
	}
	if cfg.CandidateCount != nil {
		params.N = openai.Int(*cfg.CandidateCount)
	}
	if cfg.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*cfg.FrequencyPenalty)
	}
	if cfg.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*cfg.PresencePenalty)
	}
	if len(cfg.LogitBias) > 0 {
		params.LogitBias = cfg.LogitBias
	}
	if cfg.LogProbs != nil {
		params.Logprobs = openai.Bool(*cfg.LogProbs)
	}
	if cfg.TopLogProbs != nil {
		params.TopLogprobs = openai.Int(*cfg.TopLogProbs)
	}
	if cfg.Seed != nil {
		params.Seed = openai.Int(*cfg.Seed)
	}
	if cfg.User != "" {
		params.User = openai.String(cfg.User)
	}
}

// responseFormat negotiates the structured-output directive. Both the version
// allow-list and the descriptor's declared formats must permit the request.
func responseFormat(version string, info *model.Info, format model.OutputFormat) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	var rf openai.ChatCompletionNewParamsResponseFormatUnion
	if !responseFormatVersions[version] || info.Supports == nil || !info.Supports.HasOutput(format) {
		return rf, fmt.Errorf("%w: %q for model version %q", ErrUnsupportedOutputFormat, format, version)
	}
	switch format {
	case model.OutputFormatJSON:
		rf.OfJSONObject = &shared.ResponseFormatJSONObjectParam{}
	case model.OutputFormatText:
		rf.OfText = &shared.ResponseFormatTextParam{}
	default:
		return rf, fmt.Errorf("%w: %q", ErrUnsupportedOutputFormat, format)
	}
	return rf, nil
}
