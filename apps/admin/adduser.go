package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	if err := user.ValidatePassword(pwd, name, email); err != nil {
		return err
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	created := false
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		created = true
		usr = user.User{
			Email:       email,
			Role:        user.RoleBeneficiary,
			Preferences: user.DefaultPreferences(),
			Privacy:     user.DefaultPrivacy(),
			CreatedAt:   now,
		}
	}
	usr.Name = name
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if created {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s (%s) saved\n", usr.Email, usr.Role)
	return nil
}
