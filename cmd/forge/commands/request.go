package commands

import (
	"context"
	"net/url"
	"strings"

	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var queryFlags []string

	cmd := &cobra.Command{
		Use:   "get URI",
		Short: "GET a resource, following pagination",
		Long: `Issue a GET request against an opaque API URI. Cursor pagination is
followed transparently: the result contains every record of every page in
server order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			query, err := parseQueryFlags(queryFlags)
			if err != nil {
				return err
			}

			env, err := client.Get(context.Background(), args[0], query)
			if err != nil {
				return err
			}

			printRateLimit(env)

			return renderEnvelope(env)
		},
	}

	cmd.Flags().StringArrayVarP(&queryFlags, "query", "q", nil, "query parameter (key=value, repeatable)")

	return cmd
}

// NewPostCommand creates the post command.
func NewPostCommand() *cobra.Command {
	return newWriteCommand("post", "POST a resource",
		func(client forge.Client, uri string, body map[string]any) (*forge.Envelope, error) {
			return client.Post(context.Background(), uri, bodyOrNil(body))
		})
}

// NewPutCommand creates the put command.
func NewPutCommand() *cobra.Command {
	return newWriteCommand("put", "PUT a resource (retries edge 520 errors)",
		func(client forge.Client, uri string, body map[string]any) (*forge.Envelope, error) {
			return client.Put(context.Background(), uri, bodyOrNil(body))
		})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return newWriteCommand("delete", "DELETE a resource",
		func(client forge.Client, uri string, body map[string]any) (*forge.Envelope, error) {
			return client.Delete(context.Background(), uri, bodyOrNil(body))
		})
}

func newWriteCommand(verb, short string, run func(forge.Client, string, map[string]any) (*forge.Envelope, error)) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " URI [key=value ...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			body, err := parseBodyArgs(args[1:])
			if err != nil {
				return err
			}

			env, err := run(client, args[0], body)
			if err != nil {
				return err
			}

			printRateLimit(env)

			return renderEnvelope(env)
		},
	}
}

func bodyOrNil(body map[string]any) any {
	if len(body) == 0 {
		return nil
	}

	return body
}

func parseQueryFlags(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	query := url.Values{}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, ErrInvalidQueryPair
		}

		query.Add(key, value)
	}

	return query, nil
}
