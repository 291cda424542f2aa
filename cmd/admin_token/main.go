// Command admin_token mints a signed admin JWT for the /api/admin routes.
package main

import (
	"fmt"
	"log"
	"time"

	"swapdesk/internal/config"
	"swapdesk/internal/utils"

	"github.com/spf13/cobra"
)

func main() {
	config.LoadEnv()

	var (
		subject   string
		role      string
		ttl       time.Duration
		newSecret bool
	)
	cmd := &cobra.Command{
		Use:   "admin_token",
		Short: "Mint an admin JWT signed with ADMIN_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if newSecret {
				secret, err := utils.GenerateSecret()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), secret)
				return nil
			}

			secret := config.GetEnv("ADMIN_JWT_SECRET", "")
			if secret == "" {
				return fmt.Errorf("ADMIN_JWT_SECRET must be set in environment")
			}
			if role != "admin" && role != "auditor" {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := utils.GenerateAdminToken(secret, subject, role, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", config.GetEnv("ADMIN_SUBJECT", "operator"), "Token subject")
	cmd.Flags().StringVar(&role, "role", "admin", "Role: admin or auditor")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&newSecret, "new-secret", false, "Print a fresh value for ADMIN_JWT_SECRET and exit")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
