// Package commands implements the airtable command line tool.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-airtable/airtable"
	"github.com/gaborage/go-airtable/codec"
	"github.com/gaborage/go-airtable/config"
	"github.com/gaborage/go-airtable/logger"
	"github.com/gaborage/go-airtable/observability"
)

// RootOptions holds the persistent flags shared by every subcommand.
type RootOptions struct {
	ConfigFile  string
	Base        string
	EndpointURL string
	LogLevel    string
	Timeout     time.Duration
	Pretty      bool

	// loadOptions are appended to the config.Load options; tests use it to isolate the
	// environment.
	loadOptions []config.Option
}

// NewRootCommand creates the airtable command with all subcommands attached.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}
	return newRootCommand(version, opts)
}

func newRootCommand(version string, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airtable",
		Short: "Read and write Airtable records",
		Long: `Command line client for the Airtable REST API.

Credentials are read from airtable.yaml, credentials.properties and the AIRTABLE_*
environment variables, in increasing priority. Rate-limited requests are retried
automatically.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file (default ./airtable.yaml when present)")
	flags.StringVarP(&opts.Base, "base", "b", "", "Base ID, overrides AIRTABLE_BASE")
	flags.StringVar(&opts.EndpointURL, "endpoint", "", "API endpoint URL, overrides AIRTABLE_ENDPOINT_URL")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "Overall deadline for the command, 0 for none")
	flags.BoolVar(&opts.Pretty, "pretty", false, "Indent JSON output")

	cmd.AddCommand(
		newGetCommand(opts),
		newListCommand(opts),
		newCreateCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
		newVersionCommand(version),
	)
	return cmd
}

// session is the client state of one command invocation.
type session struct {
	client   *airtable.Airtable
	provider observability.Provider
	log      logger.Logger
	codec    codec.Codec
	out      io.Writer
	pretty   bool
}

func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	loadOpts := []config.Option{}
	if o.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithFile(o.ConfigFile))
	}
	overrides := map[string]any{}
	if o.Base != "" {
		overrides["airtable.base"] = o.Base
	}
	if o.EndpointURL != "" {
		overrides["airtable.endpointurl"] = o.EndpointURL
	}
	if o.LogLevel != "" {
		overrides["log.level"] = o.LogLevel
	}
	if len(overrides) > 0 {
		loadOpts = append(loadOpts, config.WithOverrides(overrides))
	}
	loadOpts = append(loadOpts, o.loadOptions...)

	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)

	var obsCfg observability.Config
	if err := cfg.Unmarshal("observability", &obsCfg); err != nil {
		return nil, fmt.Errorf("failed to read observability config: %w", err)
	}
	provider, err := observability.NewProvider(&obsCfg, observability.WithWriter(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}

	jsonCodec := codec.Default()
	client, err := airtable.NewBuilder(log).WithConfig(cfg).WithCodec(jsonCodec).Build()
	if err != nil {
		_ = observability.Shutdown(provider, 0)
		return nil, err
	}

	return &session{
		client:   client,
		provider: provider,
		log:      log,
		codec:    jsonCodec,
		out:      cmd.OutOrStdout(),
		pretty:   o.Pretty,
	}, nil
}

// commandContext applies the --timeout deadline to the command context.
func (o *RootOptions) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *session) Close() {
	if err := s.client.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to close Airtable client")
	}
	if err := observability.Shutdown(s.provider, 0); err != nil {
		s.log.Warn().Err(err).Msg("Failed to shut down observability")
	}
}

func (s *session) table(table string) (*airtable.SyncTable[map[string]any], error) {
	return airtable.SyncDefault[map[string]any](s.client, table)
}

// print writes v as one JSON document followed by a newline.
func (s *session) print(v any) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if s.pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		data = buf.Bytes()
	}
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "airtable version %s\n", version)
			fmt.Fprintf(out, "Built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
