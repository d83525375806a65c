package router

import (
	"github.com/Lusimba/kichaka/internal/handlers"
	"github.com/Lusimba/kichaka/internal/middleware"
	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes. Registration is
// restricted to managers and proprietors; login, refresh and password
// reset are public.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, tokens *utils.TokenManager) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/password-reset/request", authHandler.RequestPasswordReset)
		authRoutes.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware(tokens))
		{
			authRequiredRoutes.POST("/register", middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager), authHandler.Register)
			authRequiredRoutes.POST("/logout", authHandler.Logout)
			authRequiredRoutes.GET("/me", authHandler.Profile)
		}
	}
}

// SetupWorkforceRoutes sets up the artist and specialization routes.
func SetupWorkforceRoutes(authenticatedGroup *gin.RouterGroup, workforceHandler *handlers.WorkforceHandler) {
	artistRoutes := authenticatedGroup.Group("/artists")
	{
		artistRoutes.GET("", workforceHandler.GetArtists)
		artistRoutes.GET("/:id", workforceHandler.GetArtistByID)

		manage := artistRoutes.Group("")
		manage.Use(middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager))
		{
			manage.POST("", workforceHandler.CreateArtist)
			manage.PUT("/:id", workforceHandler.UpdateArtist)
			manage.DELETE("/:id", workforceHandler.DeactivateArtist)
		}
	}

	specializationRoutes := authenticatedGroup.Group("/specializations")
	{
		specializationRoutes.GET("", workforceHandler.GetSpecializations)

		manage := specializationRoutes.Group("")
		manage.Use(middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager))
		{
			manage.POST("", workforceHandler.CreateSpecialization)
			manage.PUT("/:id", workforceHandler.UpdateSpecialization)
			manage.DELETE("/:id", workforceHandler.DeleteSpecialization)
		}
	}
}

// SetupStaffRoutes sets up the staff account routes. Only managers and
// proprietors may see or change staff records.
func SetupStaffRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	staffRoutes := authenticatedGroup.Group("/staff")
	staffRoutes.Use(middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager))
	{
		staffRoutes.GET("", staffHandler.GetStaffMembers)
		staffRoutes.GET("/:id", staffHandler.GetStaffMemberByID)
		staffRoutes.PUT("/:id", staffHandler.UpdateStaffMember)
		staffRoutes.DELETE("/:id", staffHandler.DeactivateStaffMember)
	}
}

// SetupInventoryRoutes sets up the category, item and stock routes.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.GET("", inventoryHandler.GetCategories)

		manage := categoryRoutes.Group("")
		manage.Use(middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager))
		{
			manage.POST("", inventoryHandler.CreateCategory)
			manage.PUT("/:id", inventoryHandler.UpdateCategory)
			manage.DELETE("/:id", inventoryHandler.DeleteCategory)
		}
	}

	itemRoutes := authenticatedGroup.Group("/items")
	{
		itemRoutes.GET("", inventoryHandler.GetItems)
		itemRoutes.GET("/low-stock", inventoryHandler.GetLowStockItems)
		itemRoutes.GET("/:id", inventoryHandler.GetItemByID)
		itemRoutes.POST("/:id/stock", inventoryHandler.AdjustStock)

		manage := itemRoutes.Group("")
		manage.Use(middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager))
		{
			manage.POST("", inventoryHandler.CreateItem)
			manage.PUT("/:id", inventoryHandler.UpdateItem)
			manage.DELETE("/:id", inventoryHandler.DeleteItem)
		}
	}

	stockRoutes := authenticatedGroup.Group("/stock")
	{
		stockRoutes.POST("/batch", inventoryHandler.BatchAdjustStock)
		stockRoutes.GET("/activities", inventoryHandler.GetActivities)
	}
}

// SetupOrderRoutes sets up the customer and order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	{
		customerRoutes.POST("", orderHandler.CreateCustomer)
		customerRoutes.GET("", orderHandler.GetCustomers)
		customerRoutes.GET("/:id", orderHandler.GetCustomerByID)
		customerRoutes.PUT("/:id", orderHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager), orderHandler.DeleteCustomer)
	}

	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.GET("/:id/details", orderHandler.GetOrderDetails)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		orderRoutes.POST("/:id/items", orderHandler.AddOrderItem)
		orderRoutes.PUT("/:id/items/:line_id", orderHandler.UpdateOrderItem)
		orderRoutes.DELETE("/:id/items/:line_id", orderHandler.RemoveOrderItem)
		orderRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager), orderHandler.DeleteOrder)
	}
}

// SetupProductionRoutes sets up the task, completed-task, rejection and
// quality check routes.
func SetupProductionRoutes(authenticatedGroup *gin.RouterGroup, productionHandler *handlers.ProductionHandler) {
	taskRoutes := authenticatedGroup.Group("/tasks")
	{
		taskRoutes.POST("", productionHandler.CreateTask)
		taskRoutes.GET("", productionHandler.GetTasks)
		taskRoutes.GET("/:id", productionHandler.GetTaskByID)
		taskRoutes.PUT("/:id", productionHandler.UpdateTask)
		taskRoutes.POST("/:id/accept", productionHandler.AcceptTask)
		taskRoutes.POST("/:id/output", productionHandler.RecordOutput)
		taskRoutes.POST("/:id/complete", productionHandler.CompleteTask)
		taskRoutes.POST("/:id/cancel", productionHandler.CancelTask)
		taskRoutes.POST("/:id/reassign", productionHandler.ReassignTask)
		taskRoutes.POST("/:id/quality-checks", productionHandler.CreateQualityCheck)
		taskRoutes.GET("/:id/quality-checks", productionHandler.GetQualityChecks)
	}

	authenticatedGroup.GET("/completed-tasks", productionHandler.GetCompletedTasks)
	authenticatedGroup.GET("/completed-tasks/:id", productionHandler.GetCompletedTaskByID)

	rejectionRoutes := authenticatedGroup.Group("/rejections")
	{
		rejectionRoutes.POST("", productionHandler.CreateRejection)
		rejectionRoutes.GET("", productionHandler.GetRejections)
		rejectionRoutes.POST("/:id/fix", productionHandler.MarkDefectFixed)
	}
}

// SetupPayrollRoutes sets up the payroll and bonus routes. Payroll is
// money; everything here requires manager or proprietor.
func SetupPayrollRoutes(authenticatedGroup *gin.RouterGroup, payrollHandler *handlers.PayrollHandler) {
	payrollRoutes := authenticatedGroup.Group("/payroll")
	payrollRoutes.Use(middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager))
	{
		payrollRoutes.POST("/generate", payrollHandler.GeneratePayroll)
		payrollRoutes.GET("", payrollHandler.GetPayrolls)
		payrollRoutes.GET("/current-month", payrollHandler.CurrentMonthSummary)
		payrollRoutes.GET("/monthly-stats", payrollHandler.GetMonthlyCompletionStats)
		payrollRoutes.GET("/:id", payrollHandler.GetPayrollByID)
		payrollRoutes.POST("/:id/pay", payrollHandler.MarkPayrollPaid)

		payrollRoutes.POST("/annual-stats", payrollHandler.AnnualArtistStats)
		payrollRoutes.GET("/bonuses", payrollHandler.GetAnnualBonuses)
		payrollRoutes.POST("/bonuses/pay", payrollHandler.PayBonuses)
	}
}

// SetupReportRoutes sets up the daily report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(models.StaffRoleProprietor, models.StaffRoleManager))
	{
		reportRoutes.POST("/refresh", reportHandler.RefreshDailyReports)
		reportRoutes.GET("/sales", reportHandler.GetSalesReports)
		reportRoutes.GET("/production", reportHandler.GetProductionReports)
	}
}
