// Package asynchttp is the entry point of an asynchronous HTTP client
// whose responses arrive as a stream of body parts.
//
// The policy lives in a [config.Config] bean, built with [NewConfig] and
// tuned with its fluent setters. [NewClient] validates it and returns a
// [client.Client] that owns the configuration's executor.
package asynchttp

import (
	"github.com/adamwoolhether/asynchttp/client"
	"github.com/adamwoolhether/asynchttp/config"
)

// NewConfig returns a configuration holding the default policy.
func NewConfig() *config.Config {
	return config.New()
}

// NewClient instantiates a new *client.Client from cfg. A nil cfg uses
// the default policy.
func NewClient(cfg *config.Config, opts ...client.Option) (*client.Client, error) {
	if cfg == nil {
		cfg = config.New()
	}

	return client.New(cfg, opts...)
}
