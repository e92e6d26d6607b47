package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication helpers",
	}

	cmd.AddCommand(newAuthTokenCmd())
	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	var (
		principal string
		secret    string
		expires   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a dev-mode JWT token and save it to the active profile",
		Long:  "Generate an HS256 JWT token for development and testing. When --secret is omitted the signing secret is read from the terminal. The token is saved to the active profile automatically.",
		Example: `  # Generate a token for alice, prompting for the secret
  lineagehub auth token --principal alice

  # Generate a token with custom expiry
  lineagehub auth token --principal alice --secret mysecret --expires 48h`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if secret == "" {
				fmt.Fprint(os.Stderr, "Signing secret: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("read secret: %w", err)
				}
				secret = strings.TrimSpace(string(raw))
			}
			if secret == "" {
				return fmt.Errorf("signing secret is required")
			}

			now := time.Now()
			claims := jwt.MapClaims{
				"sub": principal,
				"iat": now.Unix(),
				"exp": now.Add(expires).Unix(),
			}

			token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
			signed, err := token.SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			// Save to active profile
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{Profiles: make(map[string]Profile)}
			}
			profileName := cfg.CurrentProfile
			if profileName == "" {
				profileName = "default"
				cfg.CurrentProfile = profileName
			}
			if cfg.Profiles == nil {
				cfg.Profiles = make(map[string]Profile)
			}
			p := cfg.Profiles[profileName]
			p.Token = signed
			cfg.Profiles[profileName] = p
			if err := SaveUserConfig(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			_, _ = fmt.Fprintln(os.Stdout, signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "Principal name (JWT sub claim)")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (prompted when omitted)")
	cmd.Flags().DurationVar(&expires, "expires", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("principal")

	return cmd
}
