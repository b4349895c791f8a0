package handler

import "github.com/gin-gonic/gin"

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Auth       *AuthHandler
	Batches    *BatchHandler
	Practicals *PracticalHandler
	Students   *StudentHandler
	Exports    *ExportHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts the probes at the root and the API under prefix.
// Everything except login and export downloads runs behind protect.
func RegisterRoutes(r gin.IRouter, prefix string, h Handlers, protect ...gin.HandlerFunc) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)
	// Signed tokens authorise downloads on their own.
	api.GET("/exports/download/:token", h.Exports.Download)

	secured := api.Group("")
	secured.Use(protect...)

	secured.GET("/auth/me", h.Auth.Me)
	secured.GET("/metrics/summary", h.Metrics.Summary)

	secured.GET("/practicals", h.Practicals.List)
	secured.GET("/practicals/progress", h.Practicals.Progress)
	secured.GET("/practicals/:code/overview", h.Practicals.Overview)
	secured.GET("/practicals/:code/batches", h.Practicals.Batches)
	secured.GET("/practicals/:code/unassigned", h.Practicals.Unassigned)
	secured.GET("/practicals/:code/next-start", h.Batches.NextStart)
	secured.POST("/practicals/:code/batches", h.Batches.Create)

	secured.PATCH("/batches/:id", h.Batches.Edit)
	secured.DELETE("/batches/:id", h.Batches.Delete)
	secured.GET("/batches/:id/members", h.Practicals.Roster)
	secured.POST("/batches/:id/members", h.Batches.AddMembers)
	secured.DELETE("/batches/:id/members/:regNo", h.Batches.RemoveMember)
	secured.POST("/batches/:id/reindex", h.Batches.Reindex)

	secured.GET("/index/verify", h.Batches.VerifyIndex)
	secured.POST("/conflicts/check", h.Batches.CheckConflicts)

	secured.GET("/students/:regNo/assignments", h.Students.Assignments)
	secured.POST("/students/assignments", h.Students.BulkAssignments)

	secured.POST("/exports", h.Exports.Create)
	secured.GET("/exports/:id", h.Exports.Status)
}
