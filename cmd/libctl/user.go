package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
)

func newUserCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "账号管理",
	}
	cmd.AddCommand(newUserCreateCmd(c))
	return cmd
}

func newUserCreateCmd(c *cli) *cobra.Command {
	var req appuser.ProvisionRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "开通账号",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := c.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			uc := appuser.NewProvisionUseCase(user.NewService(gormstore.NewUserRepository(db)))
			view, err := uc.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user id=%d name=%q email=%s role=%s\n",
				view.ID, view.Name, view.Email, view.Role)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "姓名")
	f.StringVar(&req.Email, "email", "", "邮箱(唯一)")
	f.StringVar(&req.Role, "role", string(user.RoleUser), "角色: user | admin")
	f.StringVar(&req.ContactNumber, "contact", "", "联系电话")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
