package router

import (
	"marketplace_service/internal/account/app"
	"marketplace_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes register account routes
func RegisterRoutes(r *fiber.App, accountHandler *app.AccountHandler) {
	r.Post("/register", accountHandler.Register)
	r.Post("/login", accountHandler.Login)
	r.Post("/logout", accountHandler.Logout)

	me := r.Group("/me", middlewares.JWTMiddleware())
	me.Get("/", accountHandler.Me)
}
