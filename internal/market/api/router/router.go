package router

import (
	"marketplace_service/internal/market/api/handlers"
	"marketplace_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes register market routes. Reads are public, writes need a
// valid token.
func RegisterRoutes(app *fiber.App, postHandler *handlers.PostHandler) {
	jwt := middlewares.JWTMiddleware()

	app.Get("/search", postHandler.Search)

	// the literal route must register before the :id one
	app.Get("/posts/mine", jwt, postHandler.MyPosts)
	app.Get("/posts/:id", postHandler.GetPost)

	app.Post("/posts", jwt, postHandler.CreatePost)
	app.Post("/posts/:id/images", jwt, postHandler.UploadImage)
	app.Post("/posts/:id/sold", jwt, postHandler.MarkSold)
	app.Delete("/posts/:id", jwt, postHandler.RemovePost)
	app.Post("/posts/:id/favorite", jwt, postHandler.Favorite)
	app.Delete("/posts/:id/favorite", jwt, postHandler.Unfavorite)
	app.Get("/favorites", jwt, postHandler.ListFavorites)
	app.Post("/posts/:id/chat", jwt, postHandler.ChatWithSeller)
}
