package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/calendar"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

var (
	userEmail    string
	userPassword string
	userRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create or reset an operator or admin login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := model.ParseRole(userRole)
		if !ok || !role.IsStaff() {
			return fmt.Errorf("role must be operator or admin, got %q", userRole)
		}

		cfg := config.LoadDatabaseConfig()
		db, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		policy, err := calendar.LoadPolicy(calendar.SystemClock{}, config.Timezone())
		if err != nil {
			return err
		}
		svc := booking.NewService(repository.NewStore(db, cfg.Dialect()), policy, nil, nil)
		user, created, err := svc.ProvisionStaff(cmd.Context(), userEmail, userPassword, role, config.BcryptCost())
		if err != nil {
			return err
		}
		verb := "updated"
		if created {
			verb = "created"
		}
		cmd.Printf("%s %s user %s (id=%d)\n", verb, user.Role, user.Email, user.ID)
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&userEmail, "email", "", "login email")
	f.StringVar(&userPassword, "password", "", "login password")
	f.StringVar(&userRole, "role", string(model.RoleOperator), "operator or admin")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}
