package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/entrhq/miru/pkg/config"
	"github.com/entrhq/miru/pkg/executor/cli"
	"github.com/entrhq/miru/pkg/executor/headless"
)

func newChatCmd(opts *options) *cobra.Command {
	var showThinking bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode on stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, "")
			if err != nil {
				return err
			}
			defer a.close()

			executor := cli.NewExecutor(a.runtime,
				cli.WithReader(cmd.InOrStdin()),
				cli.WithWriter(cmd.OutOrStdout()),
				cli.WithShowThinking(showThinking),
				cli.WithModeChanged(persistMode),
			)
			return executor.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&showThinking, "show-thinking", false, "print the model's reasoning as it streams")
	return cmd
}

func newRunCmd(opts *options) *cobra.Command {
	var (
		jobFile    string
		transcript string
	)

	cmd := &cobra.Command{
		Use:   "run [job.yaml]",
		Short: "Run a scripted list of prompts and write a transcript",
		Long: `Run sends each prompt in a YAML job file to Miru, one turn at a time,
and records the answers and tool calls. Example job:

  mode: agent
  start_url: https://example.com
  prompts:
    - summarise this page
  turn_timeout: 2m
  transcript: transcript.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				jobFile = args[0]
			}
			if jobFile == "" {
				return fmt.Errorf("a job file is required (miru run job.yaml)")
			}

			job, err := headless.LoadJob(jobFile)
			if err != nil {
				return err
			}
			if transcript != "" {
				job.Transcript = transcript
			}

			a, err := newApp(opts, job.StartURL)
			if err != nil {
				return err
			}
			defer a.close()

			executor, err := headless.NewExecutor(a.runtime, job, headless.WithProgress(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			defer func() { _ = a.runtime.Shutdown(context.WithoutCancel(ctx)) }()

			result, err := executor.Run(ctx)
			if err != nil {
				return err
			}
			for i, turn := range result.Turns {
				fmt.Fprintf(cmd.OutOrStdout(), "## %d. %s\n\n", i+1, turn.Prompt)
				if turn.Answer != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", turn.Answer)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n\n", turn.State, turn.Error)
				}
			}
			if !result.Succeeded() {
				return fmt.Errorf("run finished with status %s", result.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&jobFile, "file", "f", "", "job file")
	cmd.Flags().StringVarP(&transcript, "output", "o", "", "write the transcript here instead of the job's transcript path")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change stored settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := config.Global()
			if fs, ok := manager.Store().(*config.FileStore); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", fs.Path())
			}
			for _, line := range manager.Lines() {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:     "set section.key value",
		Short:   "Change one setting and save it",
		Example: "  miru config set chat.mode with-agent\n  miru config set browser.allowed_urls \"https://*.example.com/**,https://docs.example.org/**\"",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Global().SetPath(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
