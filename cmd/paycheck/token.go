package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pay-equity-api/internal/models"
	"github.com/noah-isme/pay-equity-api/internal/service"
)

func tokenCmd() *cobra.Command {
	var identity service.TokenIdentity
	var role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logr, err := loadConfig()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			identity.Role = models.UserRole(role)
			auth := service.NewAuthService(logr, service.AuthConfig{
				AccessTokenSecret: cfg.JWT.Secret,
				AccessTokenExpiry: cfg.JWT.Expiration,
			})
			token, expires, err := auth.GenerateToken(identity)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", token, expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&identity.UserID, "user", "", "user ID")
	cmd.Flags().StringVar(&role, "role", string(models.RoleReviewer), "ADMIN, REVIEWER or JURISDICTION")
	cmd.Flags().StringVar(&identity.Email, "email", "", "email")
	cmd.Flags().StringVar(&identity.FullName, "name", "", "display name")
	cmd.Flags().StringVar(&identity.JurisdictionID, "jurisdiction", "", "jurisdiction ID for jurisdiction users")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
