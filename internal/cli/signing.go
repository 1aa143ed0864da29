package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/vonage/pkg/auth"
	"github.com/aussiebroadwan/vonage/pkg/cryptox"
)

// signingFlags override the configured signature secret and method.
type signingFlags struct {
	Secret string
	Method string
}

func (f *signingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Secret, "secret", "", "Signature secret (default from config)")
	cmd.Flags().StringVar(&f.Method, "method", "", "Signature method, e.g. md5, sha256, sha512hash (default from config)")
}

// signer builds an Auth holding only the signature credentials, so signing
// works with configs that also carry application keys.
func (f *signingFlags) signer(cmd *cobra.Command) (*auth.Auth, error) {
	a, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	creds := auth.Credentials{
		SignatureSecret: a.Config.SignatureSecret,
		SignatureMethod: a.Config.SignatureMethod,
	}
	if f.Secret != "" {
		creds.SignatureSecret = f.Secret
	}
	if f.Method != "" {
		creds.SignatureMethod = f.Method
	}
	return auth.New(creds)
}

func newSignCmd() *cobra.Command {
	var flags signingFlags

	cmd := &cobra.Command{
		Use:   "sign key=value...",
		Short: "Sign request parameters",
		Long: `Sign a parameter set the way signed SMS requests are signed.

A timestamp parameter is added when absent. Prints the parameters with the
sig parameter set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args)
			if err != nil {
				return err
			}
			s, err := flags.signer(cmd)
			if err != nil {
				return err
			}
			signed, err := s.SignParams(params)
			if err != nil {
				return err
			}
			return printJSON(cmd, signed)
		},
	}
	flags.register(cmd)
	return cmd
}

func newCheckSignatureCmd() *cobra.Command {
	var flags signingFlags

	cmd := &cobra.Command{
		Use:   "check-signature key=value...",
		Short: "Check the sig parameter of an inbound request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args)
			if err != nil {
				return err
			}
			if params[cryptox.SignatureParam] == "" {
				return fmt.Errorf("a %s=... parameter is required", cryptox.SignatureParam)
			}
			s, err := flags.signer(cmd)
			if err != nil {
				return err
			}
			ok, err := s.CheckSignature(params)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"valid": ok})
		},
	}
	flags.register(cmd)
	return cmd
}

func newJWTCmd() *cobra.Command {
	var (
		claims  []string
		ttl     time.Duration
		subject string
	)

	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Mint an application JWT",
		Long: `Mint a JWT signed with the application's private key.

Claim values are parsed as JSON when they can be, so --claim n=3 sets a
number and --claim acl='{"paths":{}}' an object. Anything else is a string.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseClaims(claims)
			if err != nil {
				return err
			}
			if ttl > 0 {
				overrides["ttl"] = ttl
			}
			if subject != "" {
				overrides["sub"] = subject
			}

			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			token, err := c.Auth().GenerateJWT(overrides)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"token": token})
		},
	}

	cmd.Flags().StringArrayVar(&claims, "claim", nil, "Extra claim as key=value (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default 15m)")
	cmd.Flags().StringVar(&subject, "sub", "", "Subject claim")

	cmd.AddCommand(newJWTVerifyCmd())
	return cmd
}

func newJWTVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify token",
		Short: "Verify a JWT minted with the application key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			claims, err := c.Auth().VerifyJWT(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, claims)
		},
	}
}

func parseClaims(args []string) (map[string]any, error) {
	raw, err := parseParams(args)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			if f, ok := decoded.(float64); ok && f == float64(int64(f)) {
				decoded = int64(f)
			}
			out[k] = decoded
			continue
		}
		out[k] = v
	}
	return out, nil
}

func newKeygenCmd() *cobra.Command {
	var (
		bits  int
		pkcs1 bool
		out   string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an application RSA key pair",
		Long: `Generate an RSA key pair for a Vonage application.

With --out the private key is written to that path (mode 0600) and the
public key next to it with a .pub suffix. Otherwise both are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := cryptox.GenerateKeyPair(bits, !pkcs1)
			if err != nil {
				return err
			}

			if out == "" {
				return printJSON(cmd, map[string]string{
					"private_key": string(kp.PrivatePEM),
					"public_key":  string(kp.PublicPEM),
				})
			}

			if err := writeNew(out, kp.PrivatePEM, 0o600); err != nil {
				return err
			}
			pub := strings.TrimSuffix(out, ".pem") + ".pub"
			if err := writeNew(pub, kp.PublicPEM, 0o644); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"private_key_path": out, "public_key_path": pub})
		},
	}

	cmd.Flags().IntVar(&bits, "bits", cryptox.MinRSABits, "RSA key size")
	cmd.Flags().BoolVar(&pkcs1, "pkcs1", false, "Write the private key as PKCS1 instead of PKCS8")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Private key path")
	return cmd
}

// writeNew refuses to overwrite an existing file.
func writeNew(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
