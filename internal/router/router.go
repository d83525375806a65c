package router

import (
	"database/sql"

	"github.com/Lusimba/kichaka/internal/config"
	"github.com/Lusimba/kichaka/internal/handlers"
	"github.com/Lusimba/kichaka/internal/middleware"
	"github.com/Lusimba/kichaka/internal/repositories"
	"github.com/Lusimba/kichaka/internal/services"
	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers onto the engine.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config) {
	tokens := utils.NewTokenManager(cfg.JWTSecret)

	var mailer services.Mailer
	if cfg.SMTPHost != "" && cfg.SMTPUser != "" {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		mailer = services.NewNoopMailer()
	}

	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	staffRepo := repositories.NewStaffRepository(db)
	workforceRepo := repositories.NewWorkforceRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	productionRepo := repositories.NewProductionRepository(db)
	payrollRepo := repositories.NewPayrollRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, staffRepo, db, tokens, mailer, cfg.FrontendURL)
	staffService := services.NewStaffService(staffRepo, db)
	workforceService := services.NewWorkforceService(workforceRepo, db)
	inventoryService := services.NewInventoryService(inventoryRepo, db)
	orderService := services.NewOrderService(orderRepo, inventoryRepo, db)
	productionService := services.NewProductionService(productionRepo, inventoryRepo, db)
	payrollService := services.NewPayrollService(payrollRepo, db, cfg.DefaultBonusPercentage)
	reportService := services.NewReportService(reportRepo, db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	staffHandler := handlers.NewStaffHandler(staffService)
	workforceHandler := handlers.NewWorkforceHandler(workforceService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	productionHandler := handlers.NewProductionHandler(productionService)
	payrollHandler := handlers.NewPayrollHandler(payrollService)
	reportHandler := handlers.NewReportHandler(reportService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler, tokens)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		SetupWorkforceRoutes(authenticated, workforceHandler)
		SetupStaffRoutes(authenticated, staffHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupProductionRoutes(authenticated, productionHandler)
		SetupPayrollRoutes(authenticated, payrollHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}
