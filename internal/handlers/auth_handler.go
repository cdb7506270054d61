package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"agromart/internal/models"
	"agromart/internal/services"
)

// AuthHandler handles HTTP requests for registration, verification and login.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/verify-otp", h.HandleVerifyOTP)
	router.Delete("/users/:email", h.HandlePurgeUnverified)
	router.Post("/login", h.HandleLogin)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": validationMessage(err),
		})
	}

	user, err := h.authService.Register(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully. OTP sent to email.",
		"user":    user,
	})
}

// HandleVerifyOTP activates an account and issues a session token.
func (h *AuthHandler) HandleVerifyOTP(c *fiber.Ctx) error {
	var req models.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": validationMessage(err),
		})
	}

	token, _, err := h.authService.VerifyOTP(c.Context(), req.Email, req.OTP)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "OTP verified successfully",
		"token":   token,
	})
}

// HandlePurgeUnverified deletes a registration whose OTP window elapsed.
func (h *AuthHandler) HandlePurgeUnverified(c *fiber.Ctx) error {
	email := c.Params("email")
	if err := h.authService.PurgeUnverified(c.Context(), email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Unverified user deleted successfully",
	})
}

// HandleLogin authenticates a user and issues a session token. Unknown
// email and wrong password produce the same message so the response never
// reveals which field was wrong.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": validationMessage(err),
		})
	}

	token, user, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, services.ErrNotFound) {
			status = fiber.StatusNotFound
		}
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(status).JSON(fiber.Map{
				"message": "Invalid email or password",
			})
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"token":    token,
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
	})
}

// validationMessage flattens validator errors into a single human-readable
// message.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return "Invalid email format"
		case "min":
			return fe.Field() + " must be at least " + fe.Param() + " characters long"
		case "len":
			return fe.Field() + " must be exactly " + fe.Param() + " characters long"
		default:
			return "Validation failed on field " + fe.Field()
		}
	}
	return "Validation failed"
}
