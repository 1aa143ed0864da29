package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/vonage/internal/app"
	"github.com/aussiebroadwan/vonage/pkg/vonage"
)

// printJSON writes v to the command's stdout, indented.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// appFrom returns the App set up by the root command.
func appFrom(cmd *cobra.Command) (*app.App, error) {
	a := app.FromContext(cmd.Context())
	if a == nil {
		return nil, fmt.Errorf("%s: command was run outside the root command", cmd.Name())
	}
	return a, nil
}

// clientFrom returns the SDK client built from the loaded configuration.
func clientFrom(cmd *cobra.Command) (*vonage.Vonage, error) {
	a, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	return a.Client()
}

// parseParams turns key=value arguments into a map. A key given twice keeps
// the last value.
func parseParams(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q must look like key=value", arg)
		}
		out[k] = v
	}
	return out, nil
}
