package main

import (
	"context"

	"github.com/alloyapp/alloy/core/user"
)

// addUser registers a user the same way the API does, password policy included.
func (cli *commandLine) addUser(ctx context.Context, uname, email, pwd string) (user.User, error) {
	nu := user.NewUser{Username: uname, Email: email, Password: pwd}
	if err := nu.Validate(cli.validate); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.Register(ctx, nu)
}
