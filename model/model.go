package model

import (
	"context"
	"fmt"

	"github.com/pedi/genkit-plugins/core"
)

// OutputFormat names a response shape a model can be asked to produce.
type OutputFormat string

const (
	// OutputFormatText requests plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON requests a JSON object as output.
	OutputFormatJSON OutputFormat = "json"
)

// FinishReason classifies why a candidate stopped generating.
type FinishReason string

const (
	// FinishReasonStop marks natural completion (including tool-call turns).
	FinishReasonStop FinishReason = "stop"
	// FinishReasonLength marks truncation at the token limit.
	FinishReasonLength FinishReason = "length"
	// FinishReasonBlocked marks content-filter interception.
	FinishReasonBlocked FinishReason = "blocked"
	// FinishReasonOther marks a vendor reason outside the known set.
	FinishReasonOther FinishReason = "other"
	// FinishReasonUnknown marks an absent reason on a streaming fragment.
	FinishReasonUnknown FinishReason = "unknown"
)

// Supports enumerates the capability flags of a model.
type Supports struct {
	Multiturn  bool           `json:"multiturn"`
	Tools      bool           `json:"tools"`
	Media      bool           `json:"media"`
	SystemRole bool           `json:"system_role"`
	Output     []OutputFormat `json:"output"`
}

// HasOutput reports whether the model declares the given output format.
func (s *Supports) HasOutput(f OutputFormat) bool {
	for _, o := range s.Output {
		if o == f {
			return true
		}
	}
	return false
}

// Info is the static capability descriptor for a supported model identifier.
type Info struct {
	// Label is the human-readable model name.
	Label string `json:"label"`
	// Versions lists accepted version aliases; the first entry is the
	// default effective version.
	Versions []string `json:"versions,omitempty"`
	// Supports carries the feature flags used for capability gating.
	Supports *Supports `json:"supports,omitempty"`
}

// DefaultVersion returns the descriptor's default version alias, or "" when
// the descriptor lists none.
func (i *Info) DefaultVersion() string {
	if len(i.Versions) == 0 {
		return ""
	}
	return i.Versions[0]
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"` // JSON Schema
}

// VisualDetailLevel selects the vendor-side fidelity for media inputs.
type VisualDetailLevel string

const (
	// VisualDetailLevelAuto lets the vendor pick the detail level.
	VisualDetailLevelAuto VisualDetailLevel = "auto"
	// VisualDetailLevelLow requests reduced-fidelity media processing.
	VisualDetailLevelLow VisualDetailLevel = "low"
	// VisualDetailLevelHigh requests full-fidelity media processing.
	VisualDetailLevelHigh VisualDetailLevel = "high"
)

// GenerationConfig carries the recognized sampling / decoding options.
// Optional fields are pointers so an unset option never reaches the wire as a
// zero value.
type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	MaxOutputTokens  *int64   `json:"maxOutputTokens,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	CandidateCount   *int64   `json:"candidateCount,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
	// LogitBias maps token-id strings to bias values in [-100, 100].
	LogitBias         map[string]int64  `json:"logitBias,omitempty"`
	LogProbs          *bool             `json:"logProbs,omitempty"`
	TopLogProbs       *int64            `json:"topLogProbs,omitempty"` // 0-20
	Seed              *int64            `json:"seed,omitempty"`
	User              string            `json:"user,omitempty"`
	VisualDetailLevel VisualDetailLevel `json:"visualDetailLevel,omitempty"`
	// Version overrides the descriptor's default model version.
	Version string `json:"version,omitempty"`
}

// OutputConfig declares the caller's desired response shape.
type OutputConfig struct {
	Format OutputFormat `json:"format,omitempty"`
}

// Request captures the normalized model input.
type Request struct {
	Messages []*core.Message   `json:"messages"`
	Config   *GenerationConfig `json:"config,omitempty"`
	Tools    []ToolDefinition  `json:"tools,omitempty"`
	Output   *OutputConfig     `json:"output,omitempty"`
}

// Usage captures token accounting for a response. Fields are pointers so an
// absent vendor value propagates as unset, not zero.
type Usage struct {
	InputTokens  *int64 `json:"inputTokens,omitempty"`
	OutputTokens *int64 `json:"outputTokens,omitempty"`
	TotalTokens  *int64 `json:"totalTokens,omitempty"`
}

// Candidate is one generated completion option within a response.
type Candidate struct {
	Index        int           `json:"index"`
	FinishReason FinishReason  `json:"finishReason,omitempty"`
	Message      *core.Message `json:"message,omitempty"`
	Custom       any           `json:"custom,omitempty"` // Opaque vendor passthrough
}

// Text returns the concatenated text of the candidate message, or "" when the
// candidate has no message.
func (c *Candidate) Text() string {
	if c.Message == nil {
		return ""
	}
	return c.Message.Text()
}

// Response is the terminal, consolidated result of one generation call.
type Response struct {
	ID         string       `json:"id,omitempty"`
	Candidates []*Candidate `json:"candidates"`
	Usage      *Usage       `json:"usage,omitempty"`
	Custom     any          `json:"custom,omitempty"` // Opaque raw vendor response
}

// Chunk is one incremental streaming fragment surfaced through the callback.
type Chunk struct {
	Index   int         `json:"index"`
	Content []core.Part `json:"content"`
}

// StreamCallback receives fragments in vendor delivery order, synchronously.
// Returning an error aborts the generation call.
type StreamCallback func(ctx context.Context, chunk *Chunk) error

// GenerateFunc is the request-handling function a plugin registers for one of
// its models.
type GenerateFunc func(ctx context.Context, req *Request, cb StreamCallback) (*Response, error)

// Model is the minimal interface required to drive generation. A nil callback
// selects the non-streaming path; a non-nil callback is invoked once per
// fragment before the final consolidated response is returned.
type Model interface {
	Generate(ctx context.Context, req *Request, cb StreamCallback) (*Response, error)

	// Name returns the model identifier this instance serves.
	Name() string

	// Info returns the static capability descriptor.
	Info() *Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	name      string
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		name: name,
		info: Info{
			Label:    name,
			Versions: []string{name},
			Supports: &Supports{
				Multiturn:  true,
				Tools:      true,
				SystemRole: true,
				Output:     []OutputFormat{OutputFormatText},
			},
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional per-rune chunks then the final
// consolidated response.
func (m *MockModel) Generate(ctx context.Context, req *Request, cb StreamCallback) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	last := req.Messages[len(req.Messages)-1]
	full := m.responses[last.Text()]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", last.Text())
	}
	if cb != nil {
		for _, r := range full {
			chunk := &Chunk{Index: 0, Content: []core.Part{core.TextPart{Text: string(r)}}}
			if err := cb(ctx, chunk); err != nil {
				return nil, err
			}
		}
	}
	return &Response{
		ID: core.NewID(),
		Candidates: []*Candidate{{
			Index:        0,
			FinishReason: FinishReasonStop,
			Message:      core.NewModelTextMessage(full),
		}},
	}, nil
}

// Name implements Model.
func (m *MockModel) Name() string { return m.name }

// Info implements Model.
func (m *MockModel) Info() *Info { return &m.info }
