package main

import (
	"lendingdesk/config"
	"lendingdesk/controllers"
	"lendingdesk/middleware"
	"lendingdesk/models"
	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// appServices - сервисы, общие для всех маршрутов
type appServices struct {
	auth     *services.AuthService
	users    *services.UserService
	tenants  *services.TenantService
	accounts *services.AccountService
	clients  *services.ClientService
	ledger   *services.LedgerService
	loans    *services.LoanService
	postal   *services.PostalCodeService
}

func newServices(cfg *config.Config, db *gorm.DB) appServices {
	return appServices{
		auth:     services.NewAuthService(db, cfg, services.NewEmailService(cfg)),
		users:    services.NewUserService(db),
		tenants:  services.NewTenantService(db),
		accounts: services.NewAccountService(db),
		clients:  services.NewClientService(db),
		ledger:   services.NewLedgerService(db),
		loans:    services.NewLoanService(db),
		postal:   services.NewPostalCodeService(cfg.Postal.BaseURL, cfg.Postal.Timeout),
	}
}

// setupRouter собирает gin.Engine со всеми маршрутами API.
// pinger может быть nil, тогда /health не проверяет базу.
func setupRouter(cfg *config.Config, svc appServices, pinger controllers.Pinger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	controllers.SetExposeInternalErrors(!cfg.IsProduction())

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	authController := controllers.NewAuthController(svc.auth, svc.users)
	accountController := controllers.NewAccountController(svc.accounts, svc.ledger)
	ledgerController := controllers.NewLedgerController(svc.ledger)
	loanController := controllers.NewLoanController(svc.loans)
	clientController := controllers.NewClientController(svc.clients)
	userController := controllers.NewUserController(svc.users)
	tenantController := controllers.NewTenantController(svc.tenants)
	systemController := controllers.NewSystemController(svc.postal, pinger)

	viewers := middleware.RequireRoles(models.RoleAdmin, models.RoleOperator, models.RoleViewer)
	operators := middleware.RequireRoles(models.RoleAdmin, models.RoleOperator)
	admins := middleware.RequireRoles(models.RoleAdmin)
	superAdmins := middleware.RequireRoles(models.RoleSuperAdmin)

	router.GET("/health", systemController.Health)

	// Публичные маршруты аутентификации
	authLimit := middleware.RateLimit(utils.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateWindow))
	public := router.Group("/auth")
	{
		public.POST("/login", authLimit, authController.Login)
		public.POST("/refresh", authLimit, authController.Refresh)
		public.POST("/forgot-password", authLimit, authController.ForgotPassword)
		public.POST("/reset-password", authLimit, authController.ResetPassword)
	}

	// Достаточно валидного токена
	authenticated := router.Group("/", middleware.Authenticate(cfg.JWT.SecretKey))
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.PUT("/auth/password", authController.ChangePassword)
	}

	// Токен + разрешенный арендатор
	gated := authenticated.Group("/", middleware.TenantGate(svc.users, svc.tenants, cfg.Tenant.SuspendedAllowList))
	gated.GET("/auth/me", authController.Me)

	registerLedgerRoutes := func(g *gin.RouterGroup) {
		g.POST("/accounts/:id/deposit", operators, ledgerController.Deposit)
		g.POST("/accounts/:id/withdraw", operators, ledgerController.Withdraw)

		g.POST("/loans", operators, ledgerController.DisburseLoan)
		g.GET("/loans", viewers, loanController.List)
		g.GET("/loans/:id", viewers, loanController.Get)
		g.GET("/loans/:id/schedule", viewers, loanController.Schedule)
		g.PATCH("/loans/:id/status", admins, loanController.UpdateStatus)
		g.POST("/loans/:id/payments", operators, ledgerController.RegisterPayment)
	}

	// Маршруты без версии сохранены для существующих клиентов
	registerLedgerRoutes(gated.Group("/"))

	v1 := gated.Group("/v1")
	registerLedgerRoutes(v1)
	{
		v1.GET("/accounts", viewers, accountController.List)
		v1.POST("/accounts", admins, accountController.Create)
		v1.GET("/accounts/total-balance", viewers, accountController.TotalBalance)
		v1.GET("/accounts/:id", viewers, accountController.Get)
		v1.PATCH("/accounts/:id", admins, accountController.Update)
		v1.DELETE("/accounts/:id", admins, accountController.Delete)
		v1.GET("/accounts/:id/transactions", viewers, accountController.Transactions)

		v1.GET("/clients", viewers, clientController.List)
		v1.POST("/clients", operators, clientController.Create)
		v1.GET("/clients/:id", viewers, clientController.Get)
		v1.PUT("/clients/:id", operators, clientController.Update)
		v1.DELETE("/clients/:id", operators, clientController.Delete)
		v1.GET("/clients/:id/addresses", viewers, clientController.ListAddresses)
		v1.PUT("/clients/:id/addresses/:label", operators, clientController.UpsertAddress)
		v1.DELETE("/clients/:id/addresses/:label", operators, clientController.DeleteAddress)

		v1.GET("/users/me/address", userController.MyAddress)
		v1.PUT("/users/me/address", userController.SaveMyAddress)
		v1.GET("/users", admins, userController.List)
		v1.POST("/users", admins, userController.Create)
		v1.GET("/users/:id", admins, userController.Get)
		v1.PATCH("/users/:id", admins, userController.Update)
		v1.DELETE("/users/:id", admins, userController.Delete)

		v1.GET("/tenants", superAdmins, tenantController.List)
		v1.POST("/tenants", superAdmins, tenantController.Create)
		v1.PATCH("/tenants/:id", superAdmins, tenantController.Update)
		v1.GET("/subscription", tenantController.Subscription)

		v1.GET("/postal-codes/:code", systemController.PostalCode)
		v1.GET("/metrics", superAdmins, systemController.Metrics)
	}

	return router
}
