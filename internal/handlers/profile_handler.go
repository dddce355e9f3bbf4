package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

// GetMine returns the caller's profile.
func (h *ProfileHandler) GetMine(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var profile models.Profile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Profile not found"})
	}

	return c.JSON(fiber.Map{"success": true, "data": profile})
}

type UpdateProfileRequest struct {
	Headline        *string   `json:"headline"`
	Bio             *string   `json:"bio"`
	CurrentCompany  *string   `json:"current_company"`
	Location        *string   `json:"location"`
	LinkedinURL     *string   `json:"linkedin_url"`
	Skills          *[]string `json:"skills"`
	YearsExperience *int      `json:"years_experience"`
}

// UpdateMine patches the caller's profile. Verification fields are admin-only
// and cannot be touched here.
func (h *ProfileHandler) UpdateMine(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Headline != nil {
		updates["headline"] = strings.TrimSpace(*req.Headline)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.CurrentCompany != nil {
		updates["current_company"] = strings.TrimSpace(*req.CurrentCompany)
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.LinkedinURL != nil {
		updates["linkedin_url"] = strings.TrimSpace(*req.LinkedinURL)
	}
	if req.YearsExperience != nil {
		if *req.YearsExperience < 0 {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Years of experience cannot be negative"})
		}
		updates["years_experience"] = *req.YearsExperience
	}
	if req.Skills != nil {
		b, err := json.Marshal(*req.Skills)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid skills"})
		}
		updates["skills"] = datatypes.JSON(b)
	}

	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Nothing to update"})
	}

	result := h.DB.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fail500(c, "Failed to update profile")
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Profile not found"})
	}

	var profile models.Profile
	h.DB.Where("user_id = ?", userID).First(&profile)
	return c.JSON(fiber.Map{"success": true, "data": profile})
}

// Verify flags a professional's profile as verified. Admin only (routing
// enforces the role).
func (h *ProfileHandler) Verify(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid user ID"})
	}

	now := time.Now()
	result := h.DB.Model(&models.Profile{}).
		Where("user_id = ?", targetID).
		Updates(map[string]interface{}{
			"is_verified": true,
			"verified_at": now,
		})
	if result.Error != nil {
		return fail500(c, "Failed to verify profile")
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Profile not found"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Profile verified"})
}
