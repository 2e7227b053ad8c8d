package main

import (
	"context"
	"fmt"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/user"
)

// cliActor is recorded as the creator of accounts made from the command line.
var cliActor = core.Actor{UserID: "admin-cli", Role: user.RoleAdmin}

// addUser creates a staff account and prints its generated credentials.
func (cli *commandLine) addUser(name, email, contact, role, technology string) error {
	creds, err := cli.usrSvc.CreateStaff(context.Background(), cliActor, user.NewStaff{
		Name:       name,
		Email:      email,
		Contact:    contact,
		Technology: technology,
		Role:       core.CleanString(role, true /* lower */),
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s %s (%s), initial password: %s\n", creds.User.Role, creds.User.ID, creds.User.Email, creds.Password)
	return nil
}

// resetPassword replaces a staff password without going through the emailed reset link.
func (cli *commandLine) resetPassword(idOrEmail, pwd string) error {
	if err := cli.usrSvc.SetPassword(context.Background(), idOrEmail, pwd); err != nil {
		return err
	}
	fmt.Printf("password updated for %s\n", idOrEmail)
	return nil
}
