package server

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts every endpoint on e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	api := e.Group("/api")

	// Data
	api.POST("/import", s.importHandler)
	api.GET("/dataset", s.datasetHandler)
	api.GET("/rows", s.rowsHandler)
	api.GET("/summary", s.summaryHandler)
	api.GET("/graph", s.graphHandler)
	api.GET("/quality", s.qualityHandler)

	// Generative
	api.POST("/insight", s.insightHandler)
	api.POST("/prediction", s.predictionHandler)
	api.POST("/pipeline", s.pipelineHandler)
}
