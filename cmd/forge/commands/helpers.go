package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/forgeline-io/forge/pkg/forgeclient"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
	OutputFormatTable = "table"
)

// File and directory permissions for persisted config.
const (
	configDirPerm  = 0750
	configFilePerm = 0600
)

// Common static errors used throughout the commands package.
var (
	ErrAPIRequired      = errors.New("API base URL is required (set --api, FORGE_API, or run 'forge login')")
	ErrTokenRequired    = errors.New("token is required (set --token, FORGE_TOKEN, or run 'forge login')")
	ErrInvalidBodyPair  = errors.New("body arguments must be key=value pairs")
	ErrInvalidQueryPair = errors.New("query parameters must be key=value pairs")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
)

// Config is the persisted CLI configuration.
type Config struct {
	API     string `yaml:"api,omitempty"`
	Token   string `yaml:"token,omitempty"`
	Strict  bool   `yaml:"strict,omitempty"`
	PerPage int    `yaml:"per_page,omitempty"`
}

func configFilePath() (string, error) {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		return cfgFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}

	return filepath.Join(home, ".forge", "config.yml"), nil
}

// loadConfig reads the persisted config, overlaying flags and environment
// through viper. Missing files yield an empty config.
func loadConfig() *Config {
	config := &Config{}

	if path, err := configFilePath(); err == nil {
		if raw, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(raw, config)
		}
	}

	if api := viper.GetString("api"); api != "" {
		config.API = api
	}

	if token := viper.GetString("token"); token != "" {
		config.Token = token
	}

	if viper.GetBool("strict") {
		config.Strict = true
	}

	if perPage := viper.GetInt("per_page"); perPage > 0 {
		config.PerPage = perPage
	}

	return config
}

// saveConfig persists the config as YAML, creating the directory on first
// use.
func saveConfig(config *Config) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirPerm); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, raw, configFilePerm); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// newClient builds a pipeline client from the effective configuration.
func newClient() (forge.Client, error) {
	config := loadConfig()

	if config.API == "" {
		return nil, ErrAPIRequired
	}

	if config.Token == "" {
		return nil, ErrTokenRequired
	}

	clientConfig := &forge.Config{
		Connection: &forge.Connection{
			BaseURL: config.API,
			Token:   config.Token,
			Strict:  config.Strict,
		},
		PerPage: config.PerPage,
	}

	if viper.GetBool("verbose") {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		clientConfig.Logger = forge.NewZerologLogger(logger)
		clientConfig.Debug = true
	}

	return forgeclient.New(clientConfig)
}

// renderEnvelope prints an envelope in the requested output format.
func renderEnvelope(env *forge.Envelope) error {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(env.Data); err != nil {
			return fmt.Errorf("encoding response as JSON: %w", err)
		}

		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)

		if err := encoder.Encode(env.Data); err != nil {
			return fmt.Errorf("encoding response as YAML: %w", err)
		}

		return nil
	default:
		return renderTable(env)
	}
}

// renderTable displays list responses as one row per record and object
// responses as a property/value table.
func renderTable(env *forge.Envelope) error {
	records := env.Records()
	if len(records) == 0 {
		fmt.Fprintf(os.Stdout, "Status: %d (no content)\n", env.Status.Code)

		return nil
	}

	first, isObject := records[0].(map[string]any)
	if !isObject {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Value")

		for _, record := range records {
			if err := table.Append([]string{formatCell(record)}); err != nil {
				return fmt.Errorf("appending table row: %w", err)
			}
		}

		return renderAndReport(table)
	}

	columns := sortedKeys(first)

	table := tablewriter.NewWriter(os.Stdout)
	headers := make([]any, 0, len(columns))
	for _, column := range columns {
		headers = append(headers, column)
	}
	table.Header(headers...)

	for _, record := range records {
		object, ok := record.(map[string]any)
		if !ok {
			continue
		}

		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, formatCell(object[column]))
		}

		if err := table.Append(row); err != nil {
			return fmt.Errorf("appending table row: %w", err)
		}
	}

	return renderAndReport(table)
}

func renderAndReport(table *tablewriter.Table) error {
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	return nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(raw)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(object map[string]any) []string {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// printRateLimit reports the quota state of the final response when verbose.
func printRateLimit(env *forge.Envelope) {
	if !viper.GetBool("verbose") {
		return
	}

	info := forge.ParseRateLimit(env.Headers)
	if info.Limit == nil && info.Remaining == nil {
		return
	}

	parts := []string{}
	if info.Remaining != nil {
		parts = append(parts, fmt.Sprintf("remaining=%d", *info.Remaining))
	}

	if info.Limit != nil {
		parts = append(parts, fmt.Sprintf("limit=%d", *info.Limit))
	}

	if info.Reset != nil {
		parts = append(parts, fmt.Sprintf("reset=%s", info.Reset.Format("15:04:05")))
	}

	fmt.Fprintf(os.Stderr, "Rate limit: %s\n", strings.Join(parts, " "))
}

// parseBodyArgs converts key=value arguments into a JSON payload map.
// Values decode as JSON when possible so numbers, booleans, and nested
// structures survive; everything else stays a string.
func parseBodyArgs(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}

	body := make(map[string]any, len(args))

	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBodyPair, arg)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			body[key] = decoded
		} else {
			body[key] = value
		}
	}

	return body, nil
}
