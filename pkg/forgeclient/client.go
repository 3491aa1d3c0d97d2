// Package forgeclient provides the main entry point for creating pipeline clients.
package forgeclient

import (
	"fmt"

	"github.com/forgeline-io/forge/internal/pipeline"
	"github.com/forgeline-io/forge/pkg/forge"
)

// New creates a pipeline client from config. The connection is validated
// lazily, once per logical call, so a client may be constructed before its
// credentials exist; the first call fails with a configuration error if
// they still don't.
func New(config *forge.Config) (forge.Client, error) {
	if config == nil {
		return nil, forge.ErrConfigRequired
	}

	executor, err := pipeline.NewExecutor(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	return executor, nil
}

// NewWithConnection creates a client for an explicit base URL and token.
func NewWithConnection(baseURL, token string) (forge.Client, error) {
	return New(&forge.Config{
		Connection: &forge.Connection{
			BaseURL: baseURL,
			Token:   token,
		},
	})
}

// NewFromEnvironment creates a client resolving the connection from the
// FORGE_API_URL and FORGE_API_TOKEN environment variables.
func NewFromEnvironment() (forge.Client, error) {
	return New(&forge.Config{})
}
