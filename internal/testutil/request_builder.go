package testutil

import (
	"github.com/pedi/genkit-plugins/core"
	"github.com/pedi/genkit-plugins/model"
)

// RequestBuilder accumulates messages and options for a model.Request.
type RequestBuilder struct {
	req model.Request
}

// NewRequest starts an empty request builder.
func NewRequest() *RequestBuilder {
	return &RequestBuilder{}
}

// WithSystem appends a system text message.
func (b *RequestBuilder) WithSystem(text string) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, core.NewSystemTextMessage(text))
	return b
}

// WithUser appends a user text message.
func (b *RequestBuilder) WithUser(text string) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, core.NewUserTextMessage(text))
	return b
}

// WithModel appends a model text message.
func (b *RequestBuilder) WithModel(text string) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, core.NewModelTextMessage(text))
	return b
}

// WithMessage appends an arbitrary message.
func (b *RequestBuilder) WithMessage(msg *core.Message) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, msg)
	return b
}

// WithToolResponse appends a tool message carrying the given response parts.
func (b *RequestBuilder) WithToolResponse(responses ...core.ToolResponse) *RequestBuilder {
	parts := make([]core.Part, len(responses))
	for i, r := range responses {
		parts[i] = core.ToolResponsePart{ToolResponse: r}
	}
	b.req.Messages = append(b.req.Messages, &core.Message{Role: core.RoleTool, Parts: parts})
	return b
}

// WithConfig sets the generation config.
func (b *RequestBuilder) WithConfig(cfg *model.GenerationConfig) *RequestBuilder {
	b.req.Config = cfg
	return b
}

// WithTools sets the tool definitions.
func (b *RequestBuilder) WithTools(tools ...model.ToolDefinition) *RequestBuilder {
	b.req.Tools = tools
	return b
}

// WithOutput sets the desired output format.
func (b *RequestBuilder) WithOutput(format model.OutputFormat) *RequestBuilder {
	b.req.Output = &model.OutputConfig{Format: format}
	return b
}

// Build returns the assembled request.
func (b *RequestBuilder) Build() *model.Request {
	return &b.req
}

// Float returns a pointer to f, for optional config fields.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i, for optional config fields.
func Int(i int64) *int64 { return &i }

// Bool returns a pointer to v, for optional config fields.
func Bool(v bool) *bool { return &v }
