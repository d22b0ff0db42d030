package main

import (
	"context"

	"github.com/alloyapp/alloy/core/user"
)

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if err = cli.validate.Struct(user.ResetPassword{Token: "-", Password: pwd}); err != nil {
		return err
	}
	return cli.usrSvc.SetPassword(ctx, usr, pwd)
}
