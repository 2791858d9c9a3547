// ABOUTME: token command: issues an access token for a user id.
// ABOUTME: Prints the token for 'lift sync login --token'.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/mirror"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token",
	Long: `Issue a signed access token for a user. Every record the token's holder
pushes is scoped to that user.

Example:
  lift-mirror token --user harper
  lift sync login --server https://lift.example.com --token <printed token>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.JWT.Expiration
		}
		token, err := mirror.IssueToken(cfg.JWT.Secret, tokenUser, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id the token is issued to")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default from jwt.expiration)")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
