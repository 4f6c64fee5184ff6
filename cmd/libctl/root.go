package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/pkg/logger"
)

// cli 子命令共享的配置
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "图书馆服务运维工具",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(c.configPath)
			if err != nil {
				return err
			}
			// 日志写stderr,stdout只留命令结果
			logger.Setup(logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Writer: cmd.ErrOrStderr(),
			})
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "配置文件路径,默认 ./config/config.yaml")

	root.AddCommand(
		newMigrateCmd(c),
		newUserCmd(c),
		newTokenCmd(c),
		newLoansCmd(c),
		newEventsCmd(c),
	)
	return root
}

// openDB 不做自动迁移,迁移只由migrate子命令执行
func (c *cli) openDB() (*gorm.DB, func(), error) {
	db, err := gormstore.Open(c.cfg.Database.Driver, c.cfg.Database.DSN(), gormlogger.Silent)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if c.cfg.Database.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}
