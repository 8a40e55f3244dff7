package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/testplan/config"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. build is called once per command
// invocation, after flags are parsed; the returned func releases what it
// acquired.
func newRootCmd(build Builder, stdout, stderr io.Writer) (*cobra.Command, func()) {
	var opts Options
	var app *App

	root := &cobra.Command{
		Use:   "testplan",
		Short: "Generate and review test plans for user stories",
		Long: `testplan generates test plans for user stories with an AI model,
lets you review and edit them in the terminal, and uploads the accepted
test cases to the test-management system.

Configuration is read from the config file (see 'testplan config path').`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipApp"] == "true" || cmd.Name() == "help" {
				return nil
			}
			a, err := build(cmd.Context(), opts, stdout)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default is the user config dir)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log debug output to the log file")
	flags.BoolVar(&opts.Upload, "upload", false, "upload generated test cases immediately")
	flags.StringVar(&opts.Project, "project", "", "project key (default is the issue key prefix)")
	flags.StringVar(&opts.Folder, "folder", "", "folder id for uploads")

	appFn := func() *App { return app }
	root.AddCommand(
		newSearchCmd(appFn),
		newGenerateCmd(appFn),
		newReviewCmd(appFn),
		newShowCmd(appFn),
		newListCmd(appFn),
		newDeleteCmd(appFn),
		newHistoryCmd(appFn),
		newConfigCmd(&opts, stdout),
	)
	closeApp := func() {
		if app != nil {
			app.Close()
		}
	}
	return root, closeApp
}

func newSearchCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search stories; without a query, pick one interactively and generate its plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return app().Interactive(cmd.Context())
			}
			return app().Search(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func newGenerateCmd(app func() *App) *cobra.Command {
	var review bool
	cmd := &cobra.Command{
		Use:   "generate <issue>",
		Short: "Generate and store the test plan for an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			plan, err := a.Generate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if review {
				return a.review(cmd.Context(), plan.IssueKey, plan.TestCases)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&review, "review", false, "open the review screen afterwards")
	return cmd
}

func newReviewCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "review <issue>",
		Short: "Review and edit the stored test plan of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Review(cmd.Context(), args[0])
		},
	}
}

func newShowCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <issue>",
		Short: "Print the stored test plan of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Show(cmd.Context(), args[0])
		},
	}
}

func newListCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored test plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app().List(cmd.Context())
		},
	}
}

func newDeleteCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <issue>",
		Short: "Delete the stored test plan of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Delete(cmd.Context(), args[0])
		},
	}
}

func newHistoryCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show past generation attempts",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return app().ShowHistory()
		},
	}
}

func newConfigCmd(opts *Options, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect the configuration",
		Annotations: map[string]string{"skipApp": "true"},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:         "path",
			Short:       "Print the config file path",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{"skipApp": "true"},
			Run: func(*cobra.Command, []string) {
				fmt.Fprintln(stdout, opts.resolvedConfigPath())
			},
		},
		&cobra.Command{
			Use:         "print",
			Short:       "Print the effective configuration with secrets masked",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{"skipApp": "true"},
			RunE: func(*cobra.Command, []string) error {
				cfg, err := config.Load(opts.resolvedConfigPath())
				if err != nil {
					return err
				}
				b, err := cfg.Redacted().Marshal()
				if err != nil {
					return err
				}
				_, err = stdout.Write(b)
				return err
			},
		},
	)
	return cmd
}
