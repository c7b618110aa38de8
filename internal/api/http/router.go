package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hey-coffee/maintenance-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Requests   *handlers.RequestsHandler
	Assignment *handlers.AssignmentHandler
	Catalog    *handlers.CatalogHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	requests := app.Group("/requests")
	requests.Post("", cfg.Requests.Create)
	requests.Get("", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Patch("/:id/status", cfg.Requests.UpdateStatus)
	requests.Post("/:id/pause", cfg.Requests.Pause)
	requests.Post("/:id/resume", cfg.Requests.Resume)
	requests.Get("/:id/sla", cfg.Requests.SLA)
	requests.Get("/:id/assignment/recommendation", cfg.Assignment.Recommend)
	requests.Post("/:id/assign", cfg.Assignment.Assign)

	branches := app.Group("/branches")
	branches.Post("", cfg.Catalog.CreateBranch)
	branches.Get("", cfg.Catalog.ListBranches)
	branches.Put("/:id", cfg.Catalog.UpdateBranch)
	branches.Put("/:id/working-hours", cfg.Catalog.SetWorkingHours)
	branches.Get("/:id/working-hours", cfg.Catalog.ListWorkingHours)
	branches.Get("/:id/holidays", cfg.Catalog.ListHolidays)
	branches.Get("/:id/equipment", cfg.Catalog.ListEquipment)

	app.Post("/holidays", cfg.Catalog.CreateHoliday)
	app.Delete("/holidays/:id", cfg.Catalog.DeleteHoliday)

	app.Post("/equipment", cfg.Catalog.CreateEquipment)

	app.Post("/vendors", cfg.Catalog.CreateVendor)
	app.Get("/vendors", cfg.Catalog.ListVendors)

	technicians := app.Group("/technicians")
	technicians.Post("", cfg.Catalog.CreateTechnician)
	technicians.Get("", cfg.Catalog.ListTechnicians)
	technicians.Get("/:id", cfg.Catalog.GetTechnician)
	technicians.Put("/:id", cfg.Catalog.UpdateTechnician)
	technicians.Put("/:id/skills", cfg.Catalog.ReplaceSkills)
}
