// Package cli implements the vonage command tree.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/vonage/internal/app"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/vonage"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string
	LogFormat  string
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           "vonage",
		Short:         "Command-line tools for the Vonage APIs",
		Long:          "vonage signs requests, mints application JWTs and calls the messaging and network APIs.",
		Version:       vonage.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := app.LoadConfig(app.LoadOptions{
				ConfigFile: flags.ConfigFile,
				EnvFile:    flags.EnvFile,
			})
			if err != nil {
				return err
			}
			if flags.LogLevel != "" {
				cfg.LogLevel = flags.LogLevel
			}
			if flags.LogFormat != "" {
				cfg.LogFormat = flags.LogFormat
			}

			a := app.New(cfg, cmd.ErrOrStderr())
			cmd.SetContext(app.WithApp(cmd.Context(), a))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Config file (default $XDG_CONFIG_HOME/vonage/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.EnvFile, "env-file", "", "Dotenv file loaded before reading VONAGE_* variables (default .env)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Log format: text, json")

	cmd.AddCommand(newSignCmd())
	cmd.AddCommand(newCheckSignatureCmd())
	cmd.AddCommand(newJWTCmd())
	cmd.AddCommand(newKeygenCmd())
	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newSMSCmd())
	cmd.AddCommand(newSimSwapCmd())
	cmd.AddCommand(newNumberVerificationCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if _, err := execute(NewRootCmd()); err != nil {
		writeError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// execute runs root and closes the App the executed command built, also when
// the command failed. cobra skips post-run hooks after a RunE error.
func execute(root *cobra.Command) (*cobra.Command, error) {
	cmd, err := root.ExecuteC()
	if cmd != nil {
		if a := app.FromContext(cmd.Context()); a != nil {
			a.Close()
		}
	}
	return cmd, err
}

// errorBody is what a failed command prints to stderr.
type errorBody struct {
	Error struct {
		Kind       string `json:"kind"`
		Message    string `json:"message"`
		StatusCode int    `json:"status_code,omitempty"`
		Data       any    `json:"data,omitempty"`
	} `json:"error"`
}

func writeError(w io.Writer, err error) {
	var body errorBody
	body.Error.Message = err.Error()

	var e *errx.Error
	if errors.As(err, &e) {
		body.Error.Kind = e.Kind.String()
		body.Error.StatusCode = e.StatusCode
		body.Error.Data = e.Data
	} else {
		body.Error.Kind = "usage"
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(body); encErr != nil {
		fmt.Fprintln(w, err)
	}
}

// exitCode is 2 for configuration and usage mistakes and 1 for everything else.
func exitCode(err error) int {
	var e *errx.Error
	if !errors.As(err, &e) {
		return 2
	}
	switch e.Kind {
	case errx.KindInvalidAuthConfig, errx.KindInvalidHTTPOptions, errx.KindValidation,
		errx.KindInvalidPhoneNumber, errx.KindInvalidPhoneNumberType:
		return 2
	default:
		return 1
	}
}
