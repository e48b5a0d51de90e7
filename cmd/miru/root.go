package main

import (
	"github.com/spf13/cobra"

	"github.com/entrhq/miru/pkg/config"
	"github.com/entrhq/miru/pkg/executor/tui"
	"github.com/entrhq/miru/pkg/logging"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	overrides  config.Overrides
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "miru",
		Short:         "Miru - chat with GPT, or let Miru read and drive your browser",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
	root.SetVersionTemplate("Miru v{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.miru/config.json)")
	flags.StringVarP(&opts.overrides.Mode, "mode", "m", "", "conversation mode: chat or agent")
	flags.StringVar(&opts.overrides.Model, "model", "", "model to use")
	flags.StringVar(&opts.overrides.APIKey, "api-key", "", "OpenAI API key (or set "+config.EnvAPIKey+")")
	flags.StringVar(&opts.overrides.BaseURL, "base-url", "", "OpenAI-compatible API base URL (or set "+config.EnvBaseURL+")")
	flags.BoolVar(&opts.debug, "debug", false, "write debug output to the log file")

	root.AddCommand(newChatCmd(opts), newRunCmd(opts), newConfigCmd())
	return root
}

func (o *options) setup() error {
	if o.debug {
		logging.SetLevel(logging.DebugLevel)
	}
	return config.Initialize(o.configPath)
}

func runTUI(cmd *cobra.Command, opts *options) error {
	a, err := newApp(opts, "")
	if err != nil {
		return err
	}
	defer a.close()

	executor := tui.NewExecutor(a.runtime,
		tui.WithDraftStore(tui.NewDraftStore(a.path("draft.txt"))),
		tui.WithModeChanged(persistMode),
	)
	return executor.Run(cmd.Context())
}
