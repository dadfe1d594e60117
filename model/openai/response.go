package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/pedi/genkit-plugins/core"
	"github.com/pedi/genkit-plugins/model"
)

// finishReason maps a terminal vendor reason onto the normalized enum.
func finishReason(vendor string) model.FinishReason {
	switch vendor {
	case "stop", "tool_calls":
		return model.FinishReasonStop
	case "length":
		return model.FinishReasonLength
	case "content_filter":
		return model.FinishReasonBlocked
	default:
		return model.FinishReasonOther
	}
}

// chunkFinishReason is the streaming variant: an absent reason means the
// fragment is still in flight, which is distinct from final-but-unclassified.
func chunkFinishReason(vendor string) model.FinishReason {
	if vendor == "" {
		return model.FinishReasonUnknown
	}
	return finishReason(vendor)
}

// parseToolArgs decodes a function-arguments string. Malformed JSON is passed
// through as the raw string; downstream consumers may speak non-JSON tool
// protocols.
func parseToolArgs(args string) any {
	if args == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(args), &v); err != nil {
		return args
	}
	return v
}

// toolRequestPart converts one vendor tool call into a tool-request part. An
// entry without a function name is malformed and unrecoverable.
func toolRequestPart(ref, name, args string) (core.Part, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tool call %q has no function name", ErrMalformedToolCall, ref)
	}
	return core.ToolRequestPart{ToolRequest: core.ToolRequest{
		Ref:   ref,
		Name:  name,
		Input: parseToolArgs(args),
	}}, nil
}

// contentParts converts final message content. In JSON mode the content must
// parse as structured data; there is no raw-string fallback on this path.
func contentParts(content string, jsonMode bool) ([]core.Part, error) {
	if jsonMode {
		var v any
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			return nil, fmt.Errorf("parse json-mode content: %w", err)
		}
		return []core.Part{core.DataPart{Data: v}}, nil
	}
	return []core.Part{core.TextPart{Text: content}}, nil
}

// translateCandidate converts one vendor choice into a generic candidate.
// Tool calls take precedence over plain content.
func translateCandidate(choice openai.ChatCompletionChoice, jsonMode bool) (*model.Candidate, error) {
	cand := &model.Candidate{
		Index:        int(choice.Index),
		FinishReason: finishReason(string(choice.FinishReason)),
		Custom:       choice,
	}
	var parts []core.Part
	if len(choice.Message.ToolCalls) > 0 {
		for _, tc := range choice.Message.ToolCalls {
			p, err := toolRequestPart(tc.ID, tc.Function.Name, tc.Function.Arguments)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
	} else {
		cp, err := contentParts(choice.Message.Content, jsonMode)
		if err != nil {
			return nil, err
		}
		parts = cp
	}
	cand.Message = &core.Message{Role: core.RoleModel, Parts: parts}
	return cand, nil
}

// translateUsage maps vendor token accounting, propagating absence as nil.
func translateUsage(u openai.CompletionUsage, present bool) *model.Usage {
	if !present {
		return nil
	}
	in, out, total := u.PromptTokens, u.CompletionTokens, u.TotalTokens
	return &model.Usage{InputTokens: &in, OutputTokens: &out, TotalTokens: &total}
}

// translateResponse converts a complete vendor response into the generic
// shape.
func translateResponse(resp *openai.ChatCompletion, jsonMode bool) (*model.Response, error) {
	out := &model.Response{
		ID:     resp.ID,
		Usage:  translateUsage(resp.Usage, resp.JSON.Usage.Valid()),
		Custom: resp,
	}
	if out.ID == "" {
		out.ID = core.NewID()
	}
	for _, choice := range resp.Choices {
		cand, err := translateCandidate(choice, jsonMode)
		if err != nil {
			return nil, err
		}
		out.Candidates = append(out.Candidates, cand)
	}
	return out, nil
}

// aggCall aggregates partial tool call streaming deltas (ref, name, arguments)
// allowing reconstruction of complete tool-request parts when the finish
// reason is emitted.
type aggCall struct{ ref, name, args string }

// choiceAgg accumulates one choice index across the fragment sequence.
type choiceAgg struct {
	text      []byte
	calls     map[int64]*aggCall
	callOrder []int64
	finish    string
}

// deltaParts folds one streaming choice delta into the aggregate and returns
// the fragment's content parts for the callback feed. Tool-call deltas surface
// the aggregate-so-far; partial argument strings fall back to raw text via the
// lenient parse.
func (a *choiceAgg) deltaParts(delta openai.ChatCompletionChunkChoiceDelta) []core.Part {
	var parts []core.Part
	if delta.Content != "" {
		a.text = append(a.text, delta.Content...)
		parts = append(parts, core.TextPart{Text: delta.Content})
	}
	for _, tc := range delta.ToolCalls {
		ac, ok := a.calls[tc.Index]
		if !ok {
			ac = &aggCall{}
			a.calls[tc.Index] = ac
			a.callOrder = append(a.callOrder, tc.Index)
		}
		if tc.ID != "" {
			ac.ref = tc.ID
		}
		if tc.Function.Name != "" {
			ac.name = tc.Function.Name
		}
		if tc.Function.Arguments != "" {
			ac.args += tc.Function.Arguments
		}
		parts = append(parts, core.ToolRequestPart{ToolRequest: core.ToolRequest{
			Ref:   ac.ref,
			Name:  ac.name,
			Input: parseToolArgs(ac.args),
		}})
	}
	return parts
}

// candidate assembles the consolidated candidate for this choice once the
// fragment sequence has completed.
func (a *choiceAgg) candidate(index int, jsonMode bool) (*model.Candidate, error) {
	var parts []core.Part
	if len(a.callOrder) > 0 {
		for _, idx := range a.callOrder {
			ac := a.calls[idx]
			p, err := toolRequestPart(ac.ref, ac.name, ac.args)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
	} else {
		cp, err := contentParts(string(a.text), jsonMode)
		if err != nil {
			return nil, err
		}
		parts = cp
	}
	return &model.Candidate{
		Index:        index,
		FinishReason: chunkFinishReason(a.finish),
		Message:      &core.Message{Role: core.RoleModel, Parts: parts},
	}, nil
}
