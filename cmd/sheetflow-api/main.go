package main

import (
	"flag"

	"go.uber.org/zap"

	"sheetflow/internal/api"
	"sheetflow/internal/api/handler"
	"sheetflow/internal/store"
	"sheetflow/pkg/router"
)

// @title sheetflow API
// @version 1.0
// @description Spreadsheet extraction and placement batches
// @host localhost:8080
// @BasePath /api/v1
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "sheetflow.db", "run-history database path")
	flag.Parse()

	if err := store.InitDB(*dbPath); err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	handler.SetLogger(logger.Sugar())

	r := router.New()
	api.RegisterRoutes(r)
	r.Start(*addr)
}
