package api

import (
	_ "csv-import/docs"
	"csv-import/internal/api/handler"
	"csv-import/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title csv-import status API
// @version 1.0
// @description Read-only view of the CSV import runs recorded in the ledger.
// @BasePath /api/v1

func RegisterRoutes(r *router.Router, h *handler.RunHandler) {
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/*/files", h.GetRunFiles)
	r.GET("/api/v1/runs/*/errors", h.GetRunErrors)
	r.GET("/api/v1/runs/*/metrics", h.GetRunMetrics)
	r.GET("/api/v1/runs/*", h.GetRun)
	r.Mount("/swagger/", httpSwagger.WrapHandler)
}
