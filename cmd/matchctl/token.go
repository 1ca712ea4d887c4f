package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"volunteermatch/config"
	"volunteermatch/internal/adapters/auth"
)

func tokenCmd() *cobra.Command {
	var userID string
	var roles []string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(userID, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID placed in the subject claim")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role to grant (repeatable), e.g. admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
