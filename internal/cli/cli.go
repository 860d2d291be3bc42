// Package cli defines the murmur command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/murmur-dev/murmur/internal/app"
	"github.com/murmur-dev/murmur/internal/version"
)

// Execute parses args, runs the selected command, and returns the
// process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	runner := &app.Runner{Stdout: stdout, Stderr: stderr}

	root := newRootCommand(runner)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	runner.Close()
	if err == nil {
		return 0
	}
	if err != app.ErrChecksFailed {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return 1
}

func newRootCommand(runner *app.Runner) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "murmur",
		Short: "Push-to-talk dictation for Wayland desktops",
		Long: "murmur records speech on toggle, transcribes it with a local\n" +
			"whisper.cpp bundle, and commits the transcript to the clipboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "help", "completion", "version":
				return nil
			}
			return runner.Setup(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	root.AddCommand(
		&cobra.Command{
			Use:   "toggle",
			Short: "Start recording, or stop and commit when already recording",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.Toggle(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the active recording and commit the transcript",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.Stop(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "cancel",
			Short: "Cancel the active recording and discard the transcript",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.Cancel(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current session state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.Status(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Verify the recognizer bundle against its integrity manifest",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.Verify(cmd.Context())
			},
		},
		newModelsCommand(runner),
		&cobra.Command{
			Use:   "devices",
			Short: "List available audio input devices",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.Devices(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "doctor",
			Short: "Run configuration and environment checks",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.Doctor(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)

	return root
}

func newModelsCommand(runner *app.Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage recognizer models",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List known models and the active selection",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.ModelsList(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "use <id>",
			Short: "Select the model the recognizer loads",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.ModelsUse(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "install <file> <id>",
			Short: "Verify a downloaded model file and install it into the bundle",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.ModelsInstall(cmd.Context(), args[0], args[1])
			},
		},
	)

	return cmd
}
