package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			token := ""
			if config.Token != "" {
				token = "***"
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Key", "Value")

			rows := [][]string{
				{"api", config.API},
				{"token", token},
				{"strict", strconv.FormatBool(config.Strict)},
				{"per_page", strconv.Itoa(config.PerPage)},
			}
			for _, row := range rows {
				if err := table.Append(row); err != nil {
					return fmt.Errorf("appending config row: %w", err)
				}
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("rendering config table: %w", err)
			}

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set and persist a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			key, value := args[0], args[1]
			switch key {
			case "api":
				config.API = value
			case "token":
				config.Token = value
			case "strict":
				strict, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("parsing strict value: %w", err)
				}

				config.Strict = strict
			case "per_page":
				perPage, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("parsing per_page value: %w", err)
				}

				config.PerPage = perPage
			default:
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			if err := saveConfig(config); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Set %s\n", key)

			return nil
		},
	}
}
