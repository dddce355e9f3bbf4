package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/services/workflow"
	"github.com/coffeeforfeedback/platform_be/internal/utils"
)

type ProjectHandler struct {
	DB       *gorm.DB
	Workflow *workflow.Service
}

func NewProjectHandler(db *gorm.DB, wf *workflow.Service) *ProjectHandler {
	return &ProjectHandler{DB: db, Workflow: wf}
}

// CreateProjectRequest is the request body for creating a project.
// All amounts are paise.
type CreateProjectRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	TargetPersona     string `json:"target_persona"`
	InterviewDuration int    `json:"interview_duration"`
	TotalPoolAmount   int64  `json:"total_pool_amount"`
	NumParticipants   int    `json:"num_participants"`
	PerParticipantPay int64  `json:"per_participant_pay"`
}

// ProjectResponse is the response DTO for a project
type ProjectResponse struct {
	ID        string `json:"id"`
	OrderCode string `json:"order_code"`
	CreatorID string `json:"creator_id"`

	Title             string `json:"title"`
	Description       string `json:"description"`
	TargetPersona     string `json:"target_persona"`
	InterviewDuration int    `json:"interview_duration"`

	TotalPoolAmount   int64  `json:"total_pool_amount"`
	NumParticipants   int    `json:"num_participants"`
	PerParticipantPay int64  `json:"per_participant_pay"`
	PayDisplay        string `json:"pay_display"` // formatted per-participant pay
	PoolDisplay       string `json:"pool_display"`

	Status       string     `json:"status"`
	EscrowPaid   bool       `json:"escrow_paid"`
	EscrowAmount int64      `json:"escrow_amount"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	ApplicationCount int64 `json:"application_count,omitempty"`
	InterviewCount   int64 `json:"interview_count,omitempty"`

	Creator *UserMini `json:"creator,omitempty"`
}

func toProjectResponse(p *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                p.ID.String(),
		OrderCode:         p.OrderCode,
		CreatorID:         p.CreatorID.String(),
		Title:             p.Title,
		Description:       p.Description,
		TargetPersona:     p.TargetPersona,
		InterviewDuration: p.InterviewDuration,
		TotalPoolAmount:   p.TotalPoolAmount,
		NumParticipants:   p.NumParticipants,
		PerParticipantPay: p.PerParticipantPay,
		PayDisplay:        utils.FormatCurrency(p.PerParticipantPay),
		PoolDisplay:       utils.FormatCurrency(p.TotalPoolAmount),
		Status:            string(p.Status),
		EscrowPaid:        p.EscrowPaid,
		EscrowAmount:      p.EscrowAmount,
		PublishedAt:       p.PublishedAt,
		CreatedAt:         p.CreatedAt,
	}

	if p.Creator != nil {
		resp.Creator = &UserMini{
			ID:   p.Creator.ID.String(),
			Name: p.Creator.Name,
		}
		if p.Creator.Profile != nil {
			resp.Creator.Headline = p.Creator.Profile.Headline
		}
	}

	return resp
}

// Create makes a DRAFT project for the authenticated founder.
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	project, err := h.Workflow.CreateProject(userID, workflow.CreateProjectInput{
		Title:             req.Title,
		Description:       req.Description,
		TargetPersona:     req.TargetPersona,
		InterviewDuration: req.InterviewDuration,
		TotalPoolAmount:   req.TotalPoolAmount,
		NumParticipants:   req.NumParticipants,
		PerParticipantPay: req.PerParticipantPay,
	})
	if err != nil {
		return workflowError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}

// Fund charges the escrow pool and publishes the project.
func (h *ProjectHandler) Fund(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid project ID"})
	}

	project, err := h.Workflow.FundProject(projectID, userID)
	if err != nil {
		return workflowError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}

// ListPublic returns ACTIVE projects for professionals to browse.
func (h *ProjectHandler) ListPublic(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	offset := (page - 1) * limit

	var projects []models.Project
	var total int64

	q := h.DB.Model(&models.Project{}).
		Preload("Creator").
		Preload("Creator.Profile").
		Where("status = ?", models.ProjectStatusActive)

	if persona := c.Query("persona"); persona != "" {
		q = q.Where("target_persona ILIKE ?", "%"+persona+"%")
	}
	if minPay := c.QueryInt("min_pay", 0); minPay > 0 {
		q = q.Where("per_participant_pay >= ?", minPay)
	}

	q.Count(&total)

	if err := q.Order("published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error; err != nil {
		log.Println("Error fetching projects:", err)
		return fail500(c, "Failed to fetch projects")
	}

	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
		"meta":    fiber.Map{"page": page, "limit": limit, "total": total},
	})
}

// ListMine returns the founder's own projects with application/interview counts.
func (h *ProjectHandler) ListMine(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var projects []models.Project
	q := h.DB.Where("creator_id = ?", userID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		log.Println("Error fetching own projects:", err)
		return fail500(c, "Failed to fetch projects")
	}

	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		resp := toProjectResponse(&projects[i])
		h.DB.Model(&models.Application{}).Where("project_id = ?", projects[i].ID).Count(&resp.ApplicationCount)
		h.DB.Model(&models.Interview{}).Where("project_id = ?", projects[i].ID).Count(&resp.InterviewCount)
		out = append(out, resp)
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// GetDetail returns one project. Draft projects are visible to their
// creator only.
func (h *ProjectHandler) GetDetail(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid project ID"})
	}

	var project models.Project
	if err := h.DB.
		Preload("Creator").
		Preload("Creator.Profile").
		First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Project not found"})
	}

	if project.Status == models.ProjectStatusDraft {
		uid, ok := c.Locals("userId").(string)
		if !ok || uid != project.CreatorID.String() {
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Project not found"})
		}
	}

	resp := toProjectResponse(&project)
	h.DB.Model(&models.Application{}).Where("project_id = ?", project.ID).Count(&resp.ApplicationCount)
	h.DB.Model(&models.Interview{}).Where("project_id = ?", project.ID).Count(&resp.InterviewCount)

	return c.JSON(fiber.Map{"success": true, "data": resp})
}
