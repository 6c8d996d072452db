package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/repositories"
	"skyroute-backend/internal/services"
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operator logins",
}

var operatorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an operator who can sign in",
	Example: `  skyroute operator add --username jdoe --initials JD --password 'change-me-now'
  skyroute operator add --username amy --initials AR --name "Amy Rowe" --password 'change-me-too'`,
	RunE: runOperatorAdd,
}

func init() {
	f := operatorAddCmd.Flags()
	f.String("username", "", "login name (stored lowercase)")
	f.String("initials", "", "initials used as the default signature")
	f.String("password", "", "password, at least 8 characters")
	f.String("name", "", "display name")
	operatorAddCmd.MarkFlagRequired("username")
	operatorAddCmd.MarkFlagRequired("initials")
	operatorAddCmd.MarkFlagRequired("password")

	operatorCmd.AddCommand(operatorAddCmd)
}

func runOperatorAdd(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := runMigrations(cmd.Context(), rt); err != nil {
		return err
	}

	f := cmd.Flags()
	username, _ := f.GetString("username")
	initials, _ := f.GetString("initials")
	password, _ := f.GetString("password")
	name, _ := f.GetString("name")

	svc := services.NewOperatorService(
		repositories.NewOperatorRepository(rt.pool),
		repositories.NewLoginLogRepository(rt.pool),
		auth.NewJWTManager(rt.cfg),
		rt.log,
	)
	op, err := svc.CreateOperator(cmd.Context(), &models.CreateOperatorRequest{
		Username:    username,
		DisplayName: name,
		Initials:    initials,
		Password:    password,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "operator %q created (id %d, initials %s)\n", op.Username, op.ID, op.Initials)
	return nil
}
