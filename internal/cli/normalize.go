package cli

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

type normalized struct {
	Input string `json:"input"`
	E164  string `json:"e164"`
	Plus  string `json:"plus"`
	Tel   string `json:"tel"`
	Hash  string `json:"hash"`
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize number...",
		Short: "Normalize phone numbers to E.164",
		Long: `Normalize phone numbers the way every API call does.

For each number prints the bare digits, the +digits and tel: forms, and the
SHA-256 hash accepted by Number Verification. Fails on the first invalid
number.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]normalized, 0, len(args))
			for _, arg := range args {
				n, err := phonex.Normalize(arg)
				if err != nil {
					return err
				}
				// Normalize is idempotent, so the derived forms cannot fail.
				plus, _ := phonex.WithPlus(n)
				tel, _ := phonex.TelURI(n)
				hash, _ := phonex.Hash(n)
				out = append(out, normalized{Input: arg, E164: n, Plus: plus, Tel: tel, Hash: hash})
			}
			return printJSON(cmd, out)
		},
	}
}
