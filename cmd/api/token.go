package main

import (
	"errors"
	"fmt"
	"time"

	"municipal-portal/internal/adapter/middleware"
	"municipal-portal/internal/config"
	"municipal-portal/internal/domain/directory"
	"municipal-portal/pkg/rut"

	"github.com/spf13/cobra"
)

// tokenCmd mints a bearer token for local testing.
func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token for a RUT and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(cfg.JWTSecret) < 16 {
				return errors.New("JWT_SECRET must be at least 16 bytes")
			}
			subject = rut.Normalize(subject)
			if !rut.Valid(subject) {
				return fmt.Errorf("invalid RUT %q", subject)
			}
			r := directory.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := middleware.SignToken([]byte(cfg.JWTSecret), subject, r, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "rut", "", "RUT of the subject (12345678-5)")
	cmd.Flags().StringVar(&role, "rol", string(directory.RoleCitizen), "vecino, funcionario or administrador")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("rut")
	return cmd
}
