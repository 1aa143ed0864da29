package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/vonage/pkg/camara"
	"github.com/aussiebroadwan/vonage/pkg/cryptox"
	"github.com/aussiebroadwan/vonage/pkg/vonage"
)

func newSimSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim-swap",
		Short: "Query the CAMARA SIM Swap API",
		Long: `Query the CAMARA SIM Swap API. Every call runs the backchannel
authorization flow with the application's credentials.`,
	}
	cmd.AddCommand(newSimSwapCheckCmd())
	cmd.AddCommand(newSimSwapDateCmd())
	return cmd
}

func newSimSwapCheckCmd() *cobra.Command {
	var maxAge int

	cmd := &cobra.Command{
		Use:   "check number",
		Short: "Report whether the SIM was swapped recently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			swapped, err := c.SimSwap.Check(cmd.Context(), args[0], maxAge)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"swapped": swapped, "max_age": effectiveMaxAge(maxAge)})
		},
	}
	cmd.Flags().IntVar(&maxAge, "max-age", vonage.DefaultSimSwapMaxAge, "Look-back window in hours")
	return cmd
}

func effectiveMaxAge(h int) int {
	if h == 0 {
		return vonage.DefaultSimSwapMaxAge
	}
	return h
}

func newSimSwapDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "date number",
		Short: "Print when the SIM last changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			at, err := c.SimSwap.LastSwapDate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var latest *string
			if !at.IsZero() {
				s := at.UTC().Format(time.RFC3339)
				latest = &s
			}
			return printJSON(cmd, map[string]*string{"latest_sim_change": latest})
		},
	}
}

func newNumberVerificationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "number-verification",
		Short: "Run the CAMARA Number Verification front-channel flow",
		Long: `Run the CAMARA Number Verification flow in three steps: build the
authorization URL the device opens, exchange the returned code for a token,
and verify a number with that token.`,
	}
	cmd.AddCommand(newNumberVerificationURLCmd())
	cmd.AddCommand(newNumberVerificationExchangeCmd())
	cmd.AddCommand(newNumberVerificationVerifyCmd())
	return cmd
}

func newNumberVerificationURLCmd() *cobra.Command {
	var req camara.AuthorizationURLRequest

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL",
		Long:  "Print the authorization URL. A random state is generated when --state is not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.State == "" {
				s, err := cryptox.NewState()
				if err != nil {
					return err
				}
				req.State = s
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			u, err := c.NumberVerification.AuthorizationURL(req)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"url": u, "state": req.State})
		},
	}

	cmd.Flags().StringVar(&req.RedirectURI, "redirect-uri", "", "Redirect URI registered for the application")
	cmd.Flags().StringVar(&req.LoginHint, "login-hint", "", "Phone number hint sent to the network")
	cmd.Flags().StringVar(&req.State, "state", "", "Opaque state echoed to the redirect")
	cmd.Flags().StringVar(&req.Scope, "scope", "", "Scope (default number verification)")
	_ = cmd.MarkFlagRequired("redirect-uri")
	return cmd
}

func newNumberVerificationExchangeCmd() *cobra.Command {
	var redirectURI string

	cmd := &cobra.Command{
		Use:   "exchange code",
		Short: "Exchange an authorization code for an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			tok, err := c.NumberVerification.ExchangeCode(cmd.Context(), args[0], redirectURI)
			if err != nil {
				return err
			}
			return printJSON(cmd, tok)
		},
	}
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Redirect URI used to build the authorization URL")
	_ = cmd.MarkFlagRequired("redirect-uri")
	return cmd
}

func newNumberVerificationVerifyCmd() *cobra.Command {
	var (
		token  string
		hashed bool
	)

	cmd := &cobra.Command{
		Use:   "verify number",
		Short: "Check a number against the device that authorized the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			ok, err := c.NumberVerification.Verify(cmd.Context(), &camara.Token{AccessToken: token},
				vonage.VerificationRequest{PhoneNumber: args[0], Hashed: hashed})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"verified": ok})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Access token from the exchange step")
	cmd.Flags().BoolVar(&hashed, "hashed", false, "Send the SHA-256 of the number instead of the number")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
