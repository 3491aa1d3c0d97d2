package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/forgeline-io/forge/pkg/forgeclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		apiFlag   string
		probePath string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store and verify API credentials",
		Long: `Prompt for a base URL and token, verify them with a pre-flight request,
and persist the connection to the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := apiFlag
			if api == "" {
				api = viper.GetString("api")
			}

			if api == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API base URL: ")
				api, _ = reader.ReadString('\n')
				api = strings.TrimSpace(api)
			}

			if api == "" {
				return ErrAPIRequired
			}

			token := viper.GetString("token")
			if token == "" {
				fmt.Print("Token: ")

				byteToken, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}

				token = strings.TrimSpace(string(byteToken))

				fmt.Println()
			}

			client, err := forgeclient.New(&forge.Config{
				Connection: &forge.Connection{
					BaseURL: api,
					Token:   token,
					Strict:  true,
				},
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			// Verify the connection before persisting anything.
			_, err = client.Get(context.Background(), probePath, nil)
			if err != nil {
				return fmt.Errorf("verifying connection: %w", err)
			}

			config := loadConfig()
			config.API = api
			config.Token = token

			if err := saveConfig(config); err != nil {
				return fmt.Errorf("saving connection: %w", err)
			}

			fmt.Fprintf(os.Stdout, "Logged in to %s\n", api)

			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "API base URL")
	cmd.Flags().StringVar(&probePath, "probe", "/user", "path used to verify the connection")

	return cmd
}
