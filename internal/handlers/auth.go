package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // founder / professional (admin tidak dari publik)
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	role := strings.ToLower(strings.TrimSpace(req.Role))

	errors := FieldErrors{}

	if name == "" {
		errors.Add("name", "Name is required")
	}
	if email == "" {
		errors.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errors.Add("email", "Invalid email format")
	}
	if password == "" {
		errors.Add("password", "Password is required")
	} else if len(password) < 6 {
		errors.Add("password", "Password must be at least 6 characters")
	}
	if role != string(models.RoleFounder) && role != string(models.RoleProfessional) {
		errors.Add("role", "Role must be founder or professional")
	}

	if len(errors) > 0 {
		return validationFail(c, errors)
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		errs := FieldErrors{}
		errs.Add("email", "Email already registered")
		return validationFail(c, errs)
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return fail500(c, "Server error")
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return fail500(c, "Failed to process password")
	}

	u := models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     models.Role(role),
		IsActive: true,
	}

	// User + wallet + empty profile in one transaction, wallet dibuat saat
	// signup (1:1) seperti di seed lama.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		wallet := models.Wallet{ID: uuid.New(), UserID: u.ID}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}
		profile := models.Profile{ID: uuid.New(), UserID: u.ID}
		return tx.Create(&profile).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Failed to register",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail500(c, "Failed to create token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "cff_token",
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registered",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"email": u.Email,
				"role":  u.Role,
			},
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errors := FieldErrors{}
	if email == "" {
		errors.Add("email", "Email is required")
	}
	if password == "" {
		errors.Add("password", "Password is required")
	}

	if len(errors) > 0 {
		return validationFail(c, errors)
	}

	var u models.User
	err := h.DB.Where("email = ?", email).First(&u).Error
	if err != nil {
		// Email tidak ditemukan -> tetap 200 agar FE tidak error
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Wrong email or password",
		})
	}

	if !u.IsActive {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Account is inactive",
		})
	}

	if !utils.CheckPassword(u.Password, password) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Wrong email or password",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "cff_token",
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Logged in",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"email": u.Email,
				"role":  u.Role,
			},
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "cff_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}
