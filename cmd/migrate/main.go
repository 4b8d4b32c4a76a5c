package main

import (
	"flag"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/infra"
	"go.uber.org/zap"
)

func main() {
	var configFile, source string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", infra.DefaultMigrationSource, "Migration source url")
	flag.Parse()

	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)
	defer logger.Sync() // nolint

	cfg, err := config.Load(configFile)
	if err != nil {
		zap.S().Fatalf("load config: %v", err)
	}
	if cfg.OmsDB == nil || cfg.OmsDB.MigrationConnURL == "" {
		zap.S().Fatal("oms_db.migration_conn_url is required")
	}

	if err := infra.GetMigrateTool().Migrate(source, cfg.OmsDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migrate: %v", err)
	}
}
