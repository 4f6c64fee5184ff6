package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/pkg/jwt"
)

func newTokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token签发",
	}
	cmd.AddCommand(newTokenIssueCmd(c))
	return cmd
}

func newTokenIssueCmd(c *cli) *cobra.Command {
	var userID uint

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "为已开通的账号签发Token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := c.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			manager := jwt.NewManager(c.cfg.JWT.Secret, c.cfg.JWT.Issuer,
				c.cfg.JWT.AccessTokenExpire, c.cfg.JWT.RefreshTokenExpire)
			uc := appuser.NewIssueTokenUseCase(user.NewService(gormstore.NewUserRepository(db)), manager)

			pair, err := uc.Execute(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "access_token: %s\n", pair.AccessToken)
			fmt.Fprintf(out, "refresh_token: %s\n", pair.RefreshToken)
			fmt.Fprintf(out, "expires_in: %d\n", pair.ExpiresIn)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user-id", 0, "用户ID")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
