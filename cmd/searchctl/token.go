package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "fraudintel/internal/jwt_token"
	"fraudintel/internal/platform/config"
	id "fraudintel/pkg/domain"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for an account (development only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("account")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		accountID, err := id.ParseAccountID(raw)
		if err != nil {
			return err
		}
		cfg := config.FromEnv()
		token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience).
			GenerateAccessToken(accountID, ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("account", "", "account id (UUID)")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("account")

	rootCmd.AddCommand(tokenCmd)
}
