package rest

import (
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, h *Handler, g prometheus.Gatherer) {
	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/refresh", h.Refresh)
	app.Post("/auth/logout", h.RequireAuth(), h.Logout)

	users := app.Group("/api/users", h.RequireAuth())
	users.Get("/me", h.Me)
	users.Patch("/profile", h.UpdateProfile)
	users.Patch("/password", h.ChangePassword)
	users.Get("/contracts", h.ListContracts)
	users.Post("/contracts", h.AddContract)
	users.Patch("/contracts", h.UpdateContract)

	admin := app.Group("/api/admin", h.RequireAuth(), h.RequireCapability(auth.CapabilityAdmin))
	admin.Delete("/users/:id/sessions", h.ForceLogout)

	if g != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
}
