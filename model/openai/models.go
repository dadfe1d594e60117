package openai

import "github.com/pedi/genkit-plugins/model"

// Provider is the identifier under which this plugin registers its models.
const Provider = "openai"

var (
	// multimodal covers the GPT-4o / GPT-4 Turbo family: full feature set
	// including media input and JSON output.
	multimodal = model.Supports{
		Multiturn:  true,
		Tools:      true,
		Media:      true,
		SystemRole: true,
		Output:     []model.OutputFormat{model.OutputFormatText, model.OutputFormatJSON},
	}
	// textOnly covers chat models without media input.
	textOnly = model.Supports{
		Multiturn:  true,
		Tools:      true,
		SystemRole: true,
		Output:     []model.OutputFormat{model.OutputFormatText, model.OutputFormatJSON},
	}
	// vision accepts media input but only produces plain text.
	vision = model.Supports{
		Multiturn:  true,
		Media:      true,
		SystemRole: true,
		Output:     []model.OutputFormat{model.OutputFormatText},
	}
)

// SupportedModels is the static capability table keyed by exact model name.
// The first entry of Versions is the default effective version.
var SupportedModels = map[string]model.Info{
	"gpt-4o": {
		Label:    "GPT-4o",
		Versions: []string{"gpt-4o", "gpt-4o-2024-11-20", "gpt-4o-2024-08-06", "gpt-4o-2024-05-13"},
		Supports: &multimodal,
	},
	"gpt-4o-mini": {
		Label:    "GPT-4o mini",
		Versions: []string{"gpt-4o-mini", "gpt-4o-mini-2024-07-18"},
		Supports: &multimodal,
	},
	"gpt-4-turbo": {
		Label:    "GPT-4 Turbo",
		Versions: []string{"gpt-4-turbo", "gpt-4-turbo-2024-04-09", "gpt-4-turbo-preview"},
		Supports: &multimodal,
	},
	"gpt-4": {
		Label:    "GPT-4",
		Versions: []string{"gpt-4", "gpt-4-0613", "gpt-4-0314"},
		Supports: &textOnly,
	},
	"gpt-4-vision": {
		Label:    "GPT-4 Vision",
		Versions: []string{"gpt-4-vision-preview", "gpt-4-1106-vision-preview"},
		Supports: &vision,
	},
	"gpt-3.5-turbo": {
		Label:    "GPT-3.5 Turbo",
		Versions: []string{"gpt-3.5-turbo", "gpt-3.5-turbo-0125", "gpt-3.5-turbo-1106"},
		Supports: &textOnly,
	},
}

// responseFormatVersions is the fixed allow-list of model versions known to
// accept the response_format directive. Versions outside this list reject the
// parameter server-side, so requests against them fail fast here instead.
var responseFormatVersions = map[string]bool{
	"gpt-4o":                  true,
	"gpt-4o-2024-11-20":       true,
	"gpt-4o-2024-08-06":       true,
	"gpt-4o-2024-05-13":       true,
	"gpt-4o-mini":             true,
	"gpt-4o-mini-2024-07-18":  true,
	"gpt-4-turbo":             true,
	"gpt-4-turbo-2024-04-09":  true,
	"gpt-4-turbo-preview":     true,
	"gpt-3.5-turbo":           true,
	"gpt-3.5-turbo-0125":      true,
	"gpt-3.5-turbo-1106":      true,
}
