package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/FelixBrandt/PayFox/app/models"
	"github.com/FelixBrandt/PayFox/app/repository"
	"github.com/FelixBrandt/PayFox/internal/pkg/token"
	"github.com/FelixBrandt/PayFox/internal/pkg/usercontext"
)

// AuthController serves registration, login and profile reads.
type AuthController struct {
	users repository.UserRepository
}

// NewAuthController creates the auth controller.
func NewAuthController(users repository.UserRepository) *AuthController {
	return &AuthController{users: users}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a new user account and returns a bearer token.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	if _, err := ac.users.GetByEmail(req.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "email_taken",
			"message": "An account with this email already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondServiceError(c, err)
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}
	if err := ac.users.Create(user); err != nil {
		return respondServiceError(c, err)
	}

	tok, err := token.Generate(user.ID, user.Name, user.Role)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": tok,
	})
}

// HandleLogin verifies credentials and returns a bearer token.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	user, err := ac.users.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		// Same response for unknown email and wrong password.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "invalid_credentials",
			"message": "Email or password is incorrect",
		})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "account_disabled",
			"message": "This account is disabled",
		})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := ac.users.Update(user); err != nil {
		return respondServiceError(c, err)
	}

	tok, err := token.Generate(user.ID, user.Name, user.Role)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": tok,
	})
}

// HandleProfile returns the authenticated user's account.
func (ac *AuthController) HandleProfile(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	user, err := ac.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "not_found",
				"message": "User not found",
			})
		}
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
