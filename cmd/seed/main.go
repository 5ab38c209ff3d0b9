package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/internal/bootstrap"
	"github.com/qs3c/quran_app_server/internal/repository"
	"github.com/qs3c/quran_app_server/internal/seed"
)

var file = flag.String("file", "", "YAML file with surahs and ayahs (default: built-in sample)")

// 导入经文数据，可重复执行
func main() {
	flag.Parse()

	cfg, logger, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer logger.Sync()

	db, err := bootstrap.OpenDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	ds, err := seed.Open(*file)
	if err != nil {
		logger.Fatal("failed to read seed data", zap.Error(err))
	}
	if err := seed.Load(repository.NewQuranRepository(db), ds); err != nil {
		logger.Fatal("failed to load seed data", zap.Error(err))
	}

	logger.Info("seed data loaded", zap.Int("surahs", len(ds.Surahs)), zap.Int("ayahs", len(ds.Ayahs)))
}
