package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/directory"
	"github.com/spf13/cobra"
)

// TokenInfo is the printed form of an issued or inspected token.
type TokenInfo struct {
	Subject     string    `json:"subject" yaml:"subject"`
	Authorities []string  `json:"authorities" yaml:"authorities"`
	Token       string    `json:"token,omitempty" yaml:"token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitzero" yaml:"expires_at,omitempty"`
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(root), newTokenInspectCmd(root))
	return cmd
}

func newTokenIssueCmd(root *rootOptions) *cobra.Command {
	var (
		subject     string
		authorities []string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a subject without a password check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}
			engine, err := root.tokenEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			p := goGuard.NewPrincipal(subject, authorities)
			token, exp, err := engine.IssueToken(p)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			return root.formatOutput(cmd.OutOrStdout(), TokenInfo{
				Subject:     p.Username(),
				Authorities: p.Authorities(),
				Token:       token,
				ExpiresAt:   exp.UTC(),
			})
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Token subject (username)")
	cmd.Flags().StringSliceVarP(&authorities, "authority", "A", nil, "Granted authority, e.g. ROLE_ADMIN (repeatable)")
	return cmd
}

func newTokenInspectCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := root.tokenEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			p, err := engine.Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return root.formatOutput(cmd.OutOrStdout(), TokenInfo{
				Subject:     p.Username(),
				Authorities: p.Authorities(),
			})
		},
	}
}

// tokenEngine builds an engine that only signs and verifies, so it is given
// an empty directory.
func (o *rootOptions) tokenEngine() (*goGuard.Engine, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.JWT.Secret) == 0 {
		return nil, fmt.Errorf("no JWT secret: set jwt.secret or %s", goGuard.EnvJWTSecret)
	}
	cfg.RateLimit.Enabled = false

	engine, err := goGuard.New().
		WithConfig(cfg).
		WithUserDirectory(directory.NewMemory()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	return engine, nil
}
