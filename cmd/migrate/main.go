package main

import (
	"encoding/json"
	"flag"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joripage/lightengine/config"
	"github.com/joripage/lightengine/pkg/infra/migrate"
	"go.uber.org/zap"
)

func main() {
	var (
		configFile string
		source     string
		down       bool
	)
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", "file://migrations", "migration source url")
	flag.BoolVar(&down, "down", false, "roll every migration back")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	configBytes, err := json.MarshalIndent(cfg, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}
	if cfg.OmsDB == nil {
		panic("oms_db is not configured")
	}

	mgTool := migrate.GetMigrateTool()
	if down {
		err = mgTool.Down(source, cfg.OmsDB.MigrationConnURL)
	} else {
		err = mgTool.Migrate(source, cfg.OmsDB.MigrationConnURL)
	}
	if err != nil {
		panic(err)
	}
}
