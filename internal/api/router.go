package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "sheetflow/docs"
	"sheetflow/internal/api/handler"
	"sheetflow/pkg/router"
)

// RegisterRoutes wires the batch API onto the router.
func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/batches", handler.CreateBatch)
	r.GET("/api/v1/batches", handler.ListBatches)
	r.GET("/api/v1/batches/*/results", handler.GetBatchResults)
	r.GET("/api/v1/batches/*", handler.GetBatch)

	r.GET("/swagger/*", func(w http.ResponseWriter, req *http.Request) {
		httpSwagger.WrapHandler(w, req)
	})
}
