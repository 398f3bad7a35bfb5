package main

import (
	"fmt"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as ED or Lab",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out a role",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show which roles are signed in",
	RunE:  runWhoami,
}

var (
	roleName     string
	loginUser    string
	loginPass    string
	logoutAll    bool
	defaultRoles = []models.Role{models.RoleED, models.RoleLab}
)

func init() {
	loginCmd.Flags().StringVar(&roleName, "role", "", "Role to sign in (ed or lab)")
	loginCmd.Flags().StringVar(&loginUser, "user", "", "Username")
	loginCmd.Flags().StringVar(&loginPass, "password", "", "Password")
	loginCmd.MarkFlagRequired("role")
	loginCmd.MarkFlagRequired("user")
	loginCmd.MarkFlagRequired("password")

	logoutCmd.Flags().StringVar(&roleName, "role", "", "Role to sign out (ed or lab)")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Sign out every role")
}

func runLogin(cmd *cobra.Command, args []string) error {
	role, err := models.ParseRole(roleName)
	if err != nil {
		return err
	}
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.session.Login(role, loginUser, loginPass); err != nil {
		return err
	}
	fmt.Printf("✓ Signed in to the %s dashboard as %s\n", role.Label(), loginUser)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	roles := defaultRoles
	if !logoutAll {
		role, err := models.ParseRole(roleName)
		if err != nil {
			return fmt.Errorf("%w (or use --all)", err)
		}
		roles = []models.Role{role}
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, role := range roles {
		if err := rt.session.Logout(role); err != nil {
			return err
		}
		fmt.Printf("✓ Signed out of the %s dashboard\n", role.Label())
	}
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, role := range defaultRoles {
		state := "signed out"
		if rt.session.IsAuthenticated(role) {
			state = "signed in as " + rt.cfg.Credentials[role].Username
		}
		fmt.Printf("%-4s %s\n", role.Label(), state)
	}
	return nil
}
