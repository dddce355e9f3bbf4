package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/realtime"
	"github.com/coffeeforfeedback/platform_be/internal/services/workflow"
)

type ApplicationHandler struct {
	DB       *gorm.DB
	Workflow *workflow.Service
	Hub      *realtime.Hub
	RDB      *redis.Client
}

func NewApplicationHandler(db *gorm.DB, wf *workflow.Service, hub *realtime.Hub, rdb *redis.Client) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Workflow: wf, Hub: hub, RDB: rdb}
}

type ApplyRequest struct {
	CoverLetter  string `json:"cover_letter"`
	Availability string `json:"availability"`
}

// ApplicationResponse is the response DTO for an application
type ApplicationResponse struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	ApplicantID  string    `json:"applicant_id"`
	CoverLetter  string    `json:"cover_letter"`
	Availability string    `json:"availability"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	// Optional embedded data
	Applicant    *ApplicantMini `json:"applicant,omitempty"`
	ProjectTitle string         `json:"project_title,omitempty"`
}

type ApplicantMini struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Headline        string   `json:"headline,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	YearsExperience int      `json:"years_experience,omitempty"`
	IsVerified      bool     `json:"is_verified"`
	AvgRating       float64  `json:"avg_rating"`
}

func toApplicationResponse(a *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:           a.ID.String(),
		ProjectID:    a.ProjectID.String(),
		ApplicantID:  a.ApplicantID.String(),
		CoverLetter:  a.CoverLetter,
		Availability: a.Availability,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
	}

	if a.Applicant != nil {
		mini := &ApplicantMini{
			ID:   a.Applicant.ID.String(),
			Name: a.Applicant.Name,
		}
		if p := a.Applicant.Profile; p != nil {
			mini.Headline = p.Headline
			mini.YearsExperience = p.YearsExperience
			mini.IsVerified = p.IsVerified
			mini.AvgRating = p.AvgRating
			if len(p.Skills) > 0 {
				_ = json.Unmarshal(p.Skills, &mini.Skills)
			}
		}
		resp.Applicant = mini
	}

	if a.Project != nil {
		resp.ProjectTitle = a.Project.Title
	}

	return resp
}

// Apply submits an application to a project.
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid project ID"})
	}

	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	app, err := h.Workflow.Apply(projectID, userID, req.CoverLetter, req.Availability)
	if err != nil {
		return workflowError(c, err)
	}

	// Notify the founder about the new application
	var project models.Project
	if h.DB.First(&project, "id = ?", projectID).Error == nil {
		msg := fiber.Map{
			"type":        "new_application",
			"application": toApplicationResponse(app),
		}
		h.Hub.SendToUser(project.CreatorID, msg)
		publishNotification(c, h.RDB, project.CreatorID, msg)
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": toApplicationResponse(app)})
}

type ReviewRequest struct {
	Decision string `json:"decision"` // ACCEPT | REJECT
}

// Review accepts or rejects a pending application.
func (h *ApplicationHandler) Review(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid application ID"})
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	app, err := h.Workflow.ReviewApplication(appID, userID, workflow.ReviewDecision(req.Decision))
	if err != nil {
		return workflowError(c, err)
	}

	msg := fiber.Map{
		"type":        "application_status_update",
		"application": toApplicationResponse(app),
	}
	h.Hub.SendToPair(userID, app.ApplicantID, msg)
	publishNotification(c, h.RDB, userID, msg)
	publishNotification(c, h.RDB, app.ApplicantID, msg)

	return c.JSON(fiber.Map{"success": true, "data": toApplicationResponse(app)})
}

// Withdraw pulls the caller's own pending application.
func (h *ApplicationHandler) Withdraw(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid application ID"})
	}

	app, err := h.Workflow.WithdrawApplication(appID, userID)
	if err != nil {
		return workflowError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": toApplicationResponse(app)})
}

// ListForProject returns all applications on a project (creator only).
func (h *ApplicationHandler) ListForProject(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid project ID"})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Project not found"})
	}
	if project.CreatorID != userID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}

	var apps []models.Application
	q := h.DB.
		Preload("Applicant").
		Preload("Applicant.Profile").
		Where("project_id = ?", projectID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&apps).Error; err != nil {
		log.Println("Error fetching applications:", err)
		return fail500(c, "Failed to fetch applications")
	}

	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationResponse(&apps[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// ListMine returns the professional's own applications.
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var apps []models.Application
	if err := h.DB.
		Preload("Project").
		Where("applicant_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		log.Println("Error fetching own applications:", err)
		return fail500(c, "Failed to fetch applications")
	}

	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationResponse(&apps[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}
