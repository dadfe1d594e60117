// Package genkitplugins provides a high-level façade over the model registry
// and the bundled vendor plugins (OpenAI, Anthropic). Most applications
// interact with this package by:
//  1. Creating a populated registry via New() (optionally supplying API keys
//     and a structured logger)
//  2. Looking up a model by identifier, or calling Generate directly on the
//     registry
//
// The façade delegates translation to the plugin packages while keeping setup
// ergonomics concise. All defaults are safe for local development and testing;
// production deployments typically supply explicit credentials and a
// structured logger.
package genkitplugins

import (
	"github.com/pedi/genkit-plugins/logging"
	"github.com/pedi/genkit-plugins/model"
	"github.com/pedi/genkit-plugins/model/anthropic"
	"github.com/pedi/genkit-plugins/model/openai"
)

// Options configures registry construction.
type Options struct {
	// OpenAIAPIKey overrides the OpenAI SDK's environment-based credential
	// lookup.
	OpenAIAPIKey string
	// AnthropicAPIKey overrides the Anthropic SDK's environment-based
	// credential lookup.
	AnthropicAPIKey string
	// Logger receives debug-level plugin events. Defaults to no-op.
	Logger logging.Logger
}

// New returns a model registry with every model of the bundled providers
// registered under its exact identifier.
func New(optFns ...func(o *Options)) (*model.Registry, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := model.NewRegistry()
	err := openai.Register(reg, func(o *openai.Options) {
		o.APIKey = opts.OpenAIAPIKey
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	err = anthropic.Register(reg, func(o *anthropic.Options) {
		o.APIKey = opts.AnthropicAPIKey
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}
