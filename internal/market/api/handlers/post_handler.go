package handlers

import (
	"net/http"

	"marketplace_service/internal/market/app"
	"marketplace_service/pkg/logger"
	"marketplace_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PostHandler HTTP surface of the market module
type PostHandler struct {
	Usecase app.MarketUseCase
}

// CreatePostReq create listing request body
type CreatePostReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

func currentUser(c *fiber.Ctx) (string, string, bool) {
	userID, ok := c.Locals(middlewares.TokenUserID).(string)
	if !ok || userID == "" {
		return "", "", false
	}
	userName, _ := c.Locals(middlewares.TokenUserName).(string)
	return userID, userName, true
}

// CreatePost POST /posts
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID, userName, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	var req CreatePostReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	post, err := h.Usecase.CreatePost(c.Context(), userID, userName, req.Title, req.Description, req.Price)
	if err != nil {
		logger.Log.Error("create post failed", zap.String("seller_id", userID), zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(post)
}

// UploadImage POST /posts/:id/images, multipart field "file"
func (h *PostHandler) UploadImage(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "no file detected"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "open upload failed"})
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	objectKey, err := h.Usecase.AttachImage(c.Context(), userID, c.Params("id"),
		fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		if err == app.ErrNotSeller {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Log.Error("upload image failed", zap.String("post_id", c.Params("id")), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed"})
	}

	return c.JSON(fiber.Map{"object_key": objectKey})
}

// GetPost GET /posts/:id
func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, imageURLs, err := h.Usecase.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}

	return c.JSON(fiber.Map{"post": post, "image_urls": imageURLs})
}

// Search GET /search?q=keyword
func (h *PostHandler) Search(c *fiber.Ctx) error {
	posts, err := h.Usecase.Search(c.Context(), c.Query("q"))
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}
	return c.JSON(posts)
}

// MyPosts GET /posts/mine
func (h *PostHandler) MyPosts(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	posts, err := h.Usecase.SellerPosts(c.Context(), userID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "query failed"})
	}
	return c.JSON(posts)
}

// MarkSold POST /posts/:id/sold
func (h *PostHandler) MarkSold(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	if err := h.Usecase.MarkSold(c.Context(), userID, c.Params("id")); err != nil {
		if err == app.ErrNotSeller {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// RemovePost DELETE /posts/:id
func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	if err := h.Usecase.RemovePost(c.Context(), userID, c.Params("id")); err != nil {
		if err == app.ErrNotSeller {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Favorite POST /posts/:id/favorite
func (h *PostHandler) Favorite(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	if err := h.Usecase.Favorite(c.Context(), userID, c.Params("id")); err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Unfavorite DELETE /posts/:id/favorite
func (h *PostHandler) Unfavorite(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	if err := h.Usecase.Unfavorite(c.Context(), userID, c.Params("id")); err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListFavorites GET /favorites
func (h *PostHandler) ListFavorites(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	posts, err := h.Usecase.ListFavorites(c.Context(), userID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "query failed"})
	}
	return c.JSON(posts)
}

// ChatWithSeller POST /posts/:id/chat, returns the private room id
func (h *PostHandler) ChatWithSeller(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	roomID, err := h.Usecase.ChatWithSeller(c.Context(), userID, c.Params("id"))
	if err != nil {
		logger.Log.Error("chat with seller failed", zap.String("post_id", c.Params("id")), zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"room_id": roomID})
}
