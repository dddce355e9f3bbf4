package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/coffeeforfeedback/platform_be/internal/config"
	"github.com/coffeeforfeedback/platform_be/internal/db"
	"github.com/coffeeforfeedback/platform_be/internal/handlers"
	"github.com/coffeeforfeedback/platform_be/internal/middleware"
	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/realtime"
	"github.com/coffeeforfeedback/platform_be/internal/services/payment"
	"github.com/coffeeforfeedback/platform_be/internal/services/wallet"
	"github.com/coffeeforfeedback/platform_be/internal/services/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Project{},
		&models.Application{},
		&models.Interview{},
		&models.EscrowTransaction{},
	); err != nil {
		log.Fatal(err)
	}

	gateway := payment.NewHTTPGateway()
	walletSvc := wallet.NewWalletService(gdb)
	wf := workflow.NewService(gdb, walletSvc, gateway, cfg.PlatformFeePercent)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	projectH := handlers.NewProjectHandler(gdb, wf)
	applicationH := handlers.NewApplicationHandler(gdb, wf, hub, rdb)
	interviewH := handlers.NewInterviewHandler(gdb, wf, hub, rdb)
	walletH := handlers.NewWalletHandler(gdb)
	profileH := handlers.NewProfileHandler(gdb)
	dashboardH := handlers.NewDashboardHandler(gdb)
	paymentH := handlers.NewPaymentHandler(gdb, gateway)
	notifH := handlers.NewNotificationHandler(gdb, hub)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/projects", projectH.ListPublic)
	api.Get("/projects/:id", projectH.GetDetail)
	api.Post("/payments/callback", paymentH.HandleCallback)

	// protected (JWT dari cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", func(c *fiber.Ctx) error {
		uid := c.Locals("userId")

		var user models.User
		if err := gdb.Preload("Profile").First(&user, "id = ?", uid).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "User not found",
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"id":      user.ID,
				"name":    user.Name,
				"email":   user.Email,
				"role":    user.Role,
				"profile": user.Profile,
			},
		})
	})

	protected.Get("/dashboard", dashboardH.Get)
	protected.Get("/wallet", walletH.GetBalance)
	protected.Get("/wallet/transactions", walletH.ListTransactions)
	protected.Get("/profile/me", profileH.GetMine)
	protected.Patch("/profile/me", profileH.UpdateMine)
	protected.Get("/payments/estimate", paymentH.EstimateFees)

	// founder only
	protected.Post("/founder/projects",
		middleware.RequireRoles("founder"),
		projectH.Create,
	)
	protected.Get("/founder/projects",
		middleware.RequireRoles("founder"),
		projectH.ListMine,
	)
	protected.Post("/founder/projects/:id/fund",
		middleware.RequireRoles("founder"),
		projectH.Fund,
	)
	protected.Get("/founder/projects/:id/applications",
		middleware.RequireRoles("founder"),
		applicationH.ListForProject,
	)
	protected.Get("/founder/projects/:id/interviews",
		middleware.RequireRoles("founder"),
		interviewH.ListForProject,
	)
	protected.Patch("/founder/applications/:id/review",
		middleware.RequireRoles("founder"),
		applicationH.Review,
	)
	protected.Patch("/founder/interviews/:id/complete",
		middleware.RequireRoles("founder"),
		interviewH.Complete,
	)

	// professional only
	protected.Post("/professional/projects/:id/apply",
		middleware.RequireRoles("professional"),
		applicationH.Apply,
	)
	protected.Get("/professional/applications",
		middleware.RequireRoles("professional"),
		applicationH.ListMine,
	)
	protected.Patch("/professional/applications/:id/withdraw",
		middleware.RequireRoles("professional"),
		applicationH.Withdraw,
	)
	protected.Get("/professional/interviews",
		middleware.RequireRoles("professional"),
		interviewH.ListMine,
	)

	// either side of an interview can cancel
	protected.Patch("/interviews/:id/cancel", interviewH.Cancel)

	// admin only
	protected.Patch("/admin/profiles/:userId/verify",
		middleware.RequireRoles("admin"),
		profileH.Verify,
	)

	// WebSocket endpoint (autentikasi via query param)
	app.Get("/ws/notifications", websocket.New(notifH.WebSocketHandler))

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = cfg.AppPort
	}
	log.Fatal(app.Listen(":" + port))
}
