package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或升级数据表",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := c.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := gormstore.AutoMigrate(db); err != nil {
				return fmt.Errorf("数据库迁移失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", c.cfg.Database.Driver)
			return nil
		},
	}
}
