package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goGuard"
	"github.com/spf13/cobra"
)

func newHashPasswordCmd(root *rootOptions) *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for a user directory",
		Long: `Hashes a password with the configured scheme and prints the encoded
hash. Without an argument the password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if scheme != "" {
				cfg.Password.Scheme = scheme
			}

			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password on stdin")
				}
				pw = strings.TrimRight(line, "\r\n")
			}

			hasher, err := goGuard.NewPasswordHasher(cfg)
			if err != nil {
				return fmt.Errorf("failed to create password hasher: %w", err)
			}
			hash, err := hasher.Hash(pw)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().StringVar(&scheme, "scheme", "", "Hash scheme: argon2id, bcrypt (default: from config)")
	return cmd
}
