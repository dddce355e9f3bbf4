package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/realtime"
	"github.com/coffeeforfeedback/platform_be/internal/services/workflow"
	"github.com/coffeeforfeedback/platform_be/internal/utils"
)

type InterviewHandler struct {
	DB       *gorm.DB
	Workflow *workflow.Service
	Hub      *realtime.Hub
	RDB      *redis.Client
}

func NewInterviewHandler(db *gorm.DB, wf *workflow.Service, hub *realtime.Hub, rdb *redis.Client) *InterviewHandler {
	return &InterviewHandler{DB: db, Workflow: wf, Hub: hub, RDB: rdb}
}

// InterviewResponse is the response DTO for an interview
type InterviewResponse struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	ProfessionalID string `json:"professional_id"`
	ApplicationID  string `json:"application_id"`

	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	PayoutAmount    int64      `json:"payout_amount"`
	PayoutDisplay   string     `json:"payout_display"`
	Status          string     `json:"status"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	ProjectTitle string    `json:"project_title,omitempty"`
	Professional *UserMini `json:"professional,omitempty"`
}

func toInterviewResponse(iv *models.Interview) InterviewResponse {
	resp := InterviewResponse{
		ID:              iv.ID.String(),
		ProjectID:       iv.ProjectID.String(),
		ProfessionalID:  iv.ProfessionalID.String(),
		ApplicationID:   iv.ApplicationID.String(),
		ScheduledAt:     iv.ScheduledAt,
		DurationMinutes: iv.DurationMinutes,
		PayoutAmount:    iv.PayoutAmount,
		PayoutDisplay:   utils.FormatCurrency(iv.PayoutAmount),
		Status:          string(iv.Status),
		CompletedAt:     iv.CompletedAt,
		CreatedAt:       iv.CreatedAt,
	}

	if iv.Project != nil {
		resp.ProjectTitle = iv.Project.Title
	}
	if iv.Professional != nil {
		resp.Professional = &UserMini{
			ID:   iv.Professional.ID.String(),
			Name: iv.Professional.Name,
		}
		if iv.Professional.Profile != nil {
			resp.Professional.Headline = iv.Professional.Profile.Headline
		}
	}

	return resp
}

// Complete confirms an interview happened and releases the payout.
func (h *InterviewHandler) Complete(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	interviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid interview ID"})
	}

	iv, err := h.Workflow.CompleteInterview(interviewID, userID)
	if err != nil {
		return workflowError(c, err)
	}

	msg := fiber.Map{
		"type":      "interview_status_update",
		"interview": toInterviewResponse(iv),
	}
	h.Hub.SendToPair(userID, iv.ProfessionalID, msg)
	publishNotification(c, h.RDB, userID, msg)
	publishNotification(c, h.RDB, iv.ProfessionalID, msg)

	return c.JSON(fiber.Map{"success": true, "data": toInterviewResponse(iv)})
}

// Cancel marks a scheduled interview cancelled.
func (h *InterviewHandler) Cancel(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	interviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid interview ID"})
	}

	iv, err := h.Workflow.CancelInterview(interviewID, userID)
	if err != nil {
		return workflowError(c, err)
	}

	msg := fiber.Map{
		"type":      "interview_status_update",
		"interview": toInterviewResponse(iv),
	}
	h.Hub.SendToPair(iv.Project.CreatorID, iv.ProfessionalID, msg)
	publishNotification(c, h.RDB, iv.Project.CreatorID, msg)
	publishNotification(c, h.RDB, iv.ProfessionalID, msg)

	return c.JSON(fiber.Map{"success": true, "data": toInterviewResponse(iv)})
}

// ListForProject returns a project's interviews (creator only).
func (h *InterviewHandler) ListForProject(c *fiber.Ctx) error {
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

	var interviews []models.Interview
	if err := h.DB.
		Preload("Professional").
		Preload("Professional.Profile").
		Where("project_id = ?", projectID).
		Order("scheduled_at DESC").
		Find(&interviews).Error; err != nil {
		log.Println("Error fetching interviews:", err)
		return fail500(c, "Failed to fetch interviews")
	}

	out := make([]InterviewResponse, 0, len(interviews))
	for i := range interviews {
		out = append(out, toInterviewResponse(&interviews[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// ListMine returns the professional's own interviews.
func (h *InterviewHandler) ListMine(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var interviews []models.Interview
	if err := h.DB.
		Preload("Project").
		Where("professional_id = ?", userID).
		Order("scheduled_at DESC").
		Find(&interviews).Error; err != nil {
		log.Println("Error fetching own interviews:", err)
		return fail500(c, "Failed to fetch interviews")
	}

	out := make([]InterviewResponse, 0, len(interviews))
	for i := range interviews {
		out = append(out, toInterviewResponse(&interviews[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}
