package app

import (
	"net/http"

	"marketplace_service/internal/account/domain"
	"marketplace_service/pkg/logger"
	"marketplace_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccountHandler HTTP surface of the account module
type AccountHandler struct {
	Usecase AccountUseCase
}

// RegisterReq register request body
type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginReq login request body
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register POST /register
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.Usecase.Register(c.Context(), req.Name, req.Email, req.Password); err != nil {
		logger.Log.Error("register failed", zap.String("email", req.Email), zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Login POST /login, sets the auth cookie and returns the token
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	t, err := h.Usecase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Error("login failed", zap.String("email", req.Email), zap.Error(err))
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    t,
		HTTPOnly: true,
	})

	return c.JSON(fiber.Map{"success": true, "token": t})
}

// Logout POST /logout
func (h *AccountHandler) Logout(c *fiber.Ctx) error {
	t := c.Cookies(middlewares.CookieToken)
	if t == "" {
		t = c.Query(middlewares.QueryToken)
	}
	if t == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	if err := h.Usecase.Logout(c.Context(), t); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.ClearCookie(middlewares.CookieToken)
	return c.JSON(fiber.Map{"success": true})
}

// Me GET /me, the logged-in account's own profile
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals(middlewares.TokenUserID).(string)
	if !ok || userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	account, err := h.Usecase.FindAccount(c.Context(), &domain.AccountQuery{UserID: &userID})
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
	}

	return c.JSON(fiber.Map{
		"user_id": account.UserID,
		"name":    account.Name,
		"email":   account.Email,
		"avatar":  account.Avatar,
	})
}
