package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/utils"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// FounderDashboard and ProfessionalDashboard are explicit per-role
// projections; the role field tells the frontend which shape it got.

type FounderDashboard struct {
	Role            string            `json:"role"` // "founder"
	Projects        []ProjectResponse `json:"projects"`
	TotalProjects   int64             `json:"total_projects"`
	TotalPoolAmount int64             `json:"total_pool_amount"`
	PoolDisplay     string            `json:"pool_display"`
	PendingReviews  int64             `json:"pending_reviews"`
}

type ProfessionalDashboard struct {
	Role           string                `json:"role"` // "professional"
	Applications   []ApplicationResponse `json:"applications"`
	Interviews     []InterviewResponse   `json:"interviews"`
	Balance        int64                 `json:"balance"`
	BalanceDisplay string                `json:"balance_display"`
	TotalEarnings  int64                 `json:"total_earnings"`
}

// Get returns the dashboard for the caller's role.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	role, _ := c.Locals("role").(string)

	if role == string(models.RoleFounder) {
		return h.founder(c, userID)
	}
	return h.professional(c, userID)
}

func (h *DashboardHandler) founder(c *fiber.Ctx, userID interface{}) error {
	var projects []models.Project
	if err := h.DB.
		Where("creator_id = ?", userID).
		Order("created_at DESC").
		Limit(10).
		Find(&projects).Error; err != nil {
		log.Printf("[Dashboard] Error fetching projects for founder %v: %v", userID, err)
		return fail500(c, "Failed to load dashboard")
	}

	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		resp := toProjectResponse(&projects[i])
		h.DB.Model(&models.Application{}).Where("project_id = ?", projects[i].ID).Count(&resp.ApplicationCount)
		h.DB.Model(&models.Interview{}).Where("project_id = ?", projects[i].ID).Count(&resp.InterviewCount)
		out = append(out, resp)
	}

	var totalProjects int64
	h.DB.Model(&models.Project{}).Where("creator_id = ?", userID).Count(&totalProjects)

	var totalPool int64
	h.DB.Model(&models.Project{}).
		Where("creator_id = ?", userID).
		Select("COALESCE(SUM(total_pool_amount), 0)").
		Scan(&totalPool)

	var pendingReviews int64
	h.DB.Table("applications").
		Joins("JOIN projects ON applications.project_id = projects.id").
		Where("projects.creator_id = ?", userID).
		Where("applications.status = ?", models.ApplicationStatusPending).
		Count(&pendingReviews)

	return c.JSON(fiber.Map{
		"success": true,
		"data": FounderDashboard{
			Role:            string(models.RoleFounder),
			Projects:        out,
			TotalProjects:   totalProjects,
			TotalPoolAmount: totalPool,
			PoolDisplay:     utils.FormatCurrency(totalPool),
			PendingReviews:  pendingReviews,
		},
	})
}

func (h *DashboardHandler) professional(c *fiber.Ctx, userID interface{}) error {
	var apps []models.Application
	h.DB.Preload("Project").
		Where("applicant_id = ?", userID).
		Order("created_at DESC").
		Limit(10).
		Find(&apps)

	appOut := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		appOut = append(appOut, toApplicationResponse(&apps[i]))
	}

	var interviews []models.Interview
	h.DB.Preload("Project").
		Where("professional_id = ?", userID).
		Order("scheduled_at DESC").
		Limit(10).
		Find(&interviews)

	ivOut := make([]InterviewResponse, 0, len(interviews))
	for i := range interviews {
		ivOut = append(ivOut, toInterviewResponse(&interviews[i]))
	}

	var wallet models.Wallet
	h.DB.Where("user_id = ?", userID).First(&wallet)

	// Earnings = sum of credit ledger entries
	var totalEarnings int64
	h.DB.Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Where("type = ?", models.WalletTrxCredit).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalEarnings)

	return c.JSON(fiber.Map{
		"success": true,
		"data": ProfessionalDashboard{
			Role:           string(models.RoleProfessional),
			Applications:   appOut,
			Interviews:     ivOut,
			Balance:        wallet.Balance,
			BalanceDisplay: utils.FormatCurrency(wallet.Balance),
			TotalEarnings:  totalEarnings,
		},
	})
}
