package core

// Role identifies the author of a message within a conversation.
type Role string

const (
	// RoleUser marks end-user input.
	RoleUser Role = "user"
	// RoleModel marks model-generated output.
	RoleModel Role = "model"
	// RoleSystem marks system instructions.
	RoleSystem Role = "system"
	// RoleTool marks tool execution results fed back to the model.
	RoleTool Role = "tool"
)

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// MediaPart references media content by URL (https or data URI).
type MediaPart struct {
	URL         string // Retrieval or data URL
	ContentType string // Optional MIME type hint
}

// isPart implements the Part interface for MediaPart.
func (MediaPart) isPart() {}

// DataPart is a structured data segment, used for JSON-mode model output.
type DataPart struct {
	Data any // Decoded structured payload
}

// isPart implements the Part interface for DataPart.
func (DataPart) isPart() {}

// ToolRequest describes a model-issued tool/function invocation.
type ToolRequest struct {
	Ref   string `json:"ref,omitempty"` // Call identifier correlating request and response
	Name  string `json:"name"`          // Tool / function name
	Input any    `json:"input,omitempty"`
}

// ToolRequestPart wraps a ToolRequest as a content part.
type ToolRequestPart struct {
	ToolRequest ToolRequest
}

// isPart implements the Part interface for ToolRequestPart.
func (ToolRequestPart) isPart() {}

// ToolResponse carries the outcome of a previously issued tool request.
type ToolResponse struct {
	Ref    string `json:"ref,omitempty"` // Matches originating ToolRequest Ref
	Name   string `json:"name"`          // Tool / function name
	Output any    `json:"output,omitempty"`
}

// ToolResponsePart wraps a ToolResponse as a content part.
type ToolResponsePart struct {
	ToolResponse ToolResponse
}

// isPart implements the Part interface for ToolResponsePart.
func (ToolResponsePart) isPart() {}

// Message holds role + ordered parts.
type Message struct {
	Role  Role   `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Text concatenates all text parts of the message in order, skipping every
// other part kind.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// NewUserTextMessage builds a single-part user message.
func NewUserTextMessage(text string) *Message {
	return &Message{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// NewModelTextMessage builds a single-part model message.
func NewModelTextMessage(text string) *Message {
	return &Message{Role: RoleModel, Parts: []Part{TextPart{Text: text}}}
}

// NewSystemTextMessage builds a single-part system message.
func NewSystemTextMessage(text string) *Message {
	return &Message{Role: RoleSystem, Parts: []Part{TextPart{Text: text}}}
}
