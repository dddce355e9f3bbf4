package workflow

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/services/payment"
	"github.com/coffeeforfeedback/platform_be/internal/services/wallet"
	"github.com/coffeeforfeedback/platform_be/internal/utils"
)

// Service drives the project lifecycle: funding, application review,
// interview completion and escrow release. Every mutation runs as one DB
// transaction, with state-transition guards done as conditional UPDATEs so
// two concurrent calls can never both pass the same check.
type Service struct {
	DB         *gorm.DB
	Wallet     *wallet.WalletService
	Gateway    payment.Gateway
	FeePercent int
}

func NewService(db *gorm.DB, walletService *wallet.WalletService, gateway payment.Gateway, feePercent int) *Service {
	return &Service{DB: db, Wallet: walletService, Gateway: gateway, FeePercent: feePercent}
}

type CreateProjectInput struct {
	Title             string
	Description       string
	TargetPersona     string
	InterviewDuration int
	TotalPoolAmount   int64
	NumParticipants   int
	PerParticipantPay int64
}

// CreateProject creates a project in DRAFT. It opens for applications only
// after FundProject succeeds.
func (s *Service) CreateProject(creatorID uuid.UUID, in CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.TargetPersona) == "" {
		return nil, fmt.Errorf("%w: title, description and target persona are required", ErrValidation)
	}
	if in.InterviewDuration <= 0 {
		return nil, fmt.Errorf("%w: interview duration must be positive", ErrValidation)
	}
	if in.NumParticipants <= 0 || in.PerParticipantPay <= 0 || in.TotalPoolAmount <= 0 {
		return nil, fmt.Errorf("%w: participants and amounts must be positive", ErrValidation)
	}
	if in.PerParticipantPay*int64(in.NumParticipants) > in.TotalPoolAmount {
		return nil, fmt.Errorf("%w: per-participant pay times participants exceeds the pool", ErrValidation)
	}

	// Generate unique order code
	var orderCode string
	for {
		orderCode = models.GenerateOrderCode()
		var existing models.Project
		if s.DB.Where("order_code = ?", orderCode).First(&existing).Error == gorm.ErrRecordNotFound {
			break
		}
	}

	project := models.Project{
		ID:                uuid.New(),
		OrderCode:         orderCode,
		CreatorID:         creatorID,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		TargetPersona:     in.TargetPersona,
		InterviewDuration: in.InterviewDuration,
		TotalPoolAmount:   in.TotalPoolAmount,
		NumParticipants:   in.NumParticipants,
		PerParticipantPay: in.PerParticipantPay,
		Status:            models.ProjectStatusDraft,
		EscrowPaid:        false,
	}

	if err := s.DB.Create(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// FundProject charges the full pool through the payment gateway and flips
// the project DRAFT -> ACTIVE. The status guard runs before the charge so a
// concurrent second call fails on the guard instead of charging twice; a
// declined charge rolls the whole transaction back.
func (s *Service) FundProject(projectID, payerID uuid.UUID) (*models.Project, error) {
	var project models.Project

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Creator").First(&project, "id = ?", projectID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: project %s", ErrNotFound, projectID)
			}
			return err
		}

		if project.CreatorID != payerID {
			return fmt.Errorf("%w: only the project creator can fund it", ErrForbidden)
		}
		if project.Status != models.ProjectStatusDraft {
			return fmt.Errorf("%w: project already funded", ErrInvalidState)
		}

		now := time.Now()
		result := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", project.ID, models.ProjectStatusDraft).
			Updates(map[string]interface{}{
				"status":        models.ProjectStatusActive,
				"escrow_paid":   true,
				"escrow_amount": project.TotalPoolAmount,
				"published_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: project already funded", ErrInvalidState)
		}

		merchantRef := "ESC-" + project.OrderCode
		customerName, customerEmail := "", ""
		if project.Creator != nil {
			customerName = project.Creator.Name
			customerEmail = project.Creator.Email
		}

		charge, err := s.Gateway.Charge(merchantRef, project.TotalPoolAmount, customerName, customerEmail, project.Title)
		if err != nil {
			log.Printf("Gateway declined escrow charge for project %s: %v", project.ID, err)
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}

		trx := models.EscrowTransaction{
			ProjectID:   project.ID,
			Reference:   charge.Reference,
			MerchantRef: charge.MerchantRef,
			Amount:      charge.Amount,
			GatewayFee:  utils.EstimateGatewayFee(project.TotalPoolAmount),
			CheckoutURL: charge.CheckoutURL,
			Status:      models.EscrowTrxStatusPaid,
			PaidAt:      &now,
		}
		if err := tx.Create(&trx).Error; err != nil {
			return err
		}

		return tx.First(&project, "id = ?", project.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &project, nil
}

func isUniqueViolation(err error) bool {
	// postgres unique violation
	return err != nil && (strings.Contains(strings.ToLower(err.Error()), "duplicate key value") ||
		strings.Contains(strings.ToLower(err.Error()), "unique constraint"))
}

// Apply submits a professional's application to an ACTIVE project. One
// application per (project, applicant) pair, backed by a composite unique
// index.
func (s *Service) Apply(projectID, applicantID uuid.UUID, coverLetter, availability string) (*models.Application, error) {
	var applicant models.User
	if err := s.DB.First(&applicant, "id = ?", applicantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, applicantID)
		}
		return nil, err
	}
	if applicant.Role != models.RoleProfessional {
		return nil, fmt.Errorf("%w: only professionals can apply", ErrForbidden)
	}

	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
		}
		return nil, err
	}
	if project.Status != models.ProjectStatusActive {
		return nil, fmt.Errorf("%w: project is not open for applications", ErrInvalidState)
	}

	var existing models.Application
	err := s.DB.Where("project_id = ? AND applicant_id = ?", projectID, applicantID).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: already applied to this project", ErrDuplicateApplication)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	app := models.Application{
		ID:           uuid.New(),
		ProjectID:    projectID,
		ApplicantID:  applicantID,
		CoverLetter:  coverLetter,
		Availability: availability,
		Status:       models.ApplicationStatusPending,
	}
	if err := s.DB.Create(&app).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: already applied to this project", ErrDuplicateApplication)
		}
		return nil, err
	}

	return &app, nil
}

type ReviewDecision string

const (
	DecisionAccept ReviewDecision = "ACCEPT"
	DecisionReject ReviewDecision = "REJECT"
)

// ReviewApplication lets the project creator accept or reject a PENDING
// application. Accepting freezes the payout and creates the SCHEDULED
// interview; a review is terminal either way.
func (s *Service) ReviewApplication(applicationID, reviewerID uuid.UUID, decision ReviewDecision) (*models.Application, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}

	var app models.Application

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Project").First(&app, "id = ?", applicationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: application %s", ErrNotFound, applicationID)
			}
			return err
		}
		if app.Project == nil {
			return fmt.Errorf("%w: project for application %s", ErrNotFound, applicationID)
		}
		if app.Project.CreatorID != reviewerID {
			return fmt.Errorf("%w: only the project creator can review applications", ErrForbidden)
		}

		if decision == DecisionReject {
			result := tx.Model(&models.Application{}).
				Where("id = ? AND status = ?", app.ID, models.ApplicationStatusPending).
				Update("status", models.ApplicationStatusRejected)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: application already reviewed", ErrInvalidState)
			}
			return tx.First(&app, "id = ?", app.ID).Error
		}

		// ACCEPT: reserve a slot via a guarded increment on the project
		// row. Concurrent accepts serialize on that row's write lock, so
		// two reviews of different applications can never both pass the
		// cap; a cross-row COUNT cannot give that guarantee under read
		// committed. A rollback below releases the slot.
		slot := tx.Model(&models.Project{}).
			Where("id = ? AND accepted_count < num_participants", app.ProjectID).
			Update("accepted_count", gorm.Expr("accepted_count + 1"))
		if slot.Error != nil {
			return slot.Error
		}
		if slot.RowsAffected == 0 {
			return fmt.Errorf("%w: project already has %d accepted participants", ErrCapacityExceeded, app.Project.NumParticipants)
		}

		result := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, models.ApplicationStatusPending).
			Update("status", models.ApplicationStatusAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: application already reviewed", ErrInvalidState)
		}

		interview := models.Interview{
			ID:              uuid.New(),
			ProjectID:       app.ProjectID,
			ProfessionalID:  app.ApplicantID,
			ApplicationID:   app.ID,
			ScheduledAt:     time.Now(),
			DurationMinutes: app.Project.InterviewDuration,
			PayoutAmount:    app.Project.PerParticipantPay, // frozen here, never recomputed
			Status:          models.InterviewStatusScheduled,
		}
		if err := tx.Create(&interview).Error; err != nil {
			return err
		}

		// First accepted interview moves the project into IN_PROGRESS.
		// Zero rows affected just means it already moved.
		if err := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", app.ProjectID, models.ProjectStatusActive).
			Update("status", models.ProjectStatusInProgress).Error; err != nil {
			return err
		}

		return tx.First(&app, "id = ?", app.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// WithdrawApplication lets the applicant pull a still-PENDING application.
func (s *Service) WithdrawApplication(applicationID, applicantID uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := s.DB.First(&app, "id = ?", applicationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: application %s", ErrNotFound, applicationID)
		}
		return nil, err
	}
	if app.ApplicantID != applicantID {
		return nil, fmt.Errorf("%w: only the applicant can withdraw", ErrForbidden)
	}

	result := s.DB.Model(&models.Application{}).
		Where("id = ? AND status = ?", app.ID, models.ApplicationStatusPending).
		Update("status", models.ApplicationStatusWithdrawn)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: application already reviewed", ErrInvalidState)
	}

	if err := s.DB.First(&app, "id = ?", app.ID).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// CompleteInterview is confirmed by the project creator. It releases the
// frozen payout minus the platform fee to the professional's wallet and
// debits the project escrow, all in one transaction. The escrow debit is
// guarded so the pool can never go below zero.
func (s *Service) CompleteInterview(interviewID, actorID uuid.UUID) (*models.Interview, error) {
	var interview models.Interview

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Project").First(&interview, "id = ?", interviewID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: interview %s", ErrNotFound, interviewID)
			}
			return err
		}
		if interview.Project == nil {
			return fmt.Errorf("%w: project for interview %s", ErrNotFound, interviewID)
		}
		if interview.Project.CreatorID != actorID {
			return fmt.Errorf("%w: only the project creator can confirm completion", ErrForbidden)
		}

		now := time.Now()
		result := tx.Model(&models.Interview{}).
			Where("id = ? AND status = ?", interview.ID, models.InterviewStatusScheduled).
			Updates(map[string]interface{}{
				"status":       models.InterviewStatusCompleted,
				"completed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: interview is not scheduled", ErrInvalidState)
		}

		payout := interview.PayoutAmount
		platformFee := utils.CalculatePlatformFee(payout, s.FeePercent)
		net := payout - platformFee

		// Escrow debit, guarded against exhaustion
		escrow := tx.Model(&models.Project{}).
			Where("id = ? AND escrow_amount >= ?", interview.ProjectID, payout).
			Update("escrow_amount", gorm.Expr("escrow_amount - ?", payout))
		if escrow.Error != nil {
			return escrow.Error
		}
		if escrow.RowsAffected == 0 {
			return fmt.Errorf("%w: project escrow cannot cover payout of %d", ErrEscrowExhausted, payout)
		}

		desc := "Payout for interview #" + interview.Project.OrderCode
		if err := s.Wallet.Credit(tx, interview.ProfessionalID, net, interview.ID, desc); err != nil {
			log.Printf("Failed to release escrow for interview %s: %v", interview.ID, err)
			return err
		}

		// Keep the professional's aggregate in sync
		if err := tx.Model(&models.Profile{}).
			Where("user_id = ?", interview.ProfessionalID).
			Update("total_interviews", gorm.Expr("total_interviews + 1")).Error; err != nil {
			return err
		}

		if err := s.maybeCompleteProject(tx, interview.ProjectID); err != nil {
			return err
		}

		return tx.First(&interview, "id = ?", interview.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &interview, nil
}

// CancelInterview marks a SCHEDULED interview CANCELLED. Either side may
// cancel; no money moves, and the row stays (append-only history).
func (s *Service) CancelInterview(interviewID, actorID uuid.UUID) (*models.Interview, error) {
	var interview models.Interview

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Project").First(&interview, "id = ?", interviewID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: interview %s", ErrNotFound, interviewID)
			}
			return err
		}
		if interview.Project == nil {
			return fmt.Errorf("%w: project for interview %s", ErrNotFound, interviewID)
		}
		if interview.Project.CreatorID != actorID && interview.ProfessionalID != actorID {
			return fmt.Errorf("%w: not a participant of this interview", ErrForbidden)
		}

		result := tx.Model(&models.Interview{}).
			Where("id = ? AND status = ?", interview.ID, models.InterviewStatusScheduled).
			Update("status", models.InterviewStatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: interview is not scheduled", ErrInvalidState)
		}

		if err := s.maybeCompleteProject(tx, interview.ProjectID); err != nil {
			return err
		}

		return tx.First(&interview, "id = ?", interview.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &interview, nil
}

// maybeCompleteProject flips the project to COMPLETED once the completed
// count reaches numParticipants, or once no SCHEDULED interview remains
// (whichever comes first).
func (s *Service) maybeCompleteProject(tx *gorm.DB, projectID uuid.UUID) error {
	var project models.Project
	if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
		return err
	}

	var completed, scheduled int64
	if err := tx.Model(&models.Interview{}).
		Where("project_id = ? AND status = ?", projectID, models.InterviewStatusCompleted).
		Count(&completed).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Interview{}).
		Where("project_id = ? AND status = ?", projectID, models.InterviewStatusScheduled).
		Count(&scheduled).Error; err != nil {
		return err
	}

	if completed >= int64(project.NumParticipants) || (scheduled == 0 && completed > 0) {
		return tx.Model(&models.Project{}).
			Where("id = ? AND status <> ?", projectID, models.ProjectStatusCompleted).
			Update("status", models.ProjectStatusCompleted).Error
	}
	return nil
}
