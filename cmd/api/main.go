package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-posledger-ws/internal/handler"
	"go-posledger-ws/internal/middleware"
	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/repository"
	"go-posledger-ws/internal/service"
	"go-posledger-ws/internal/ws"
	"go-posledger-ws/pkg/database"
	"go-posledger-ws/pkg/logging"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	logger := logging.New()

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (use a dedicated migration tool in production)
	db.AutoMigrate(
		&model.User{},
		&model.Person{},
		&model.Product{},
		&model.Stock{},
		&model.StockMovement{},
		&model.PriceHistory{},
		&model.PaymentType{},
		&model.Invoice{},
		&model.InvoiceProduct{},
		&model.Payment{},
		&model.InvoiceSequence{},
		&model.AuditLog{},
		&model.CompanyConfig{},
	)

	// 3. Seed company config and admin user
	seedDefaults(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	sequenceRepo := repository.NewSequenceRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	userRepo := repository.NewUserRepo(db)

	auditService := service.NewAuditService(auditRepo)
	sequenceService := service.NewSequenceService(sequenceRepo, logger)
	stockService := service.NewStockService(productRepo, movementRepo, auditService, db, wsHub, logger)
	priceService := service.NewPriceService(productRepo, auditService, db, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, productRepo, companyRepo, sequenceService, auditService, db, wsHub, logger)
	authService := service.NewAuthService(userRepo, wsHub)

	stockHandler := handler.NewStockHandler(stockService, priceService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	auditHandler := handler.NewAuditHandler(auditService)
	authHandler := handler.NewAuthHandler(authService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Ledger v1.0",
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Product Routes
	protected.Get("/products", stockHandler.GetProducts)
	protected.Post("/products", stockHandler.CreateProduct)
	protected.Get("/products/:id", stockHandler.GetProduct)
	protected.Put("/products/:id", stockHandler.UpdateProduct)
	protected.Delete("/products/:id", stockHandler.DeleteProduct)

	// Stock Ledger Routes
	protected.Post("/movements", stockHandler.RecordMovement)
	protected.Get("/movements", stockHandler.GetMovements)
	protected.Get("/movements/daily-totals", stockHandler.GetDailyTotals)
	protected.Get("/movements/:id", stockHandler.GetMovement)
	protected.Get("/products/:id/movements", stockHandler.GetProductMovements)
	protected.Get("/products/:id/stock", stockHandler.GetAvailableQuantity)
	protected.Post("/products/:id/reconcile", stockHandler.Reconcile)
	protected.Get("/products/:id/verify-chain", stockHandler.VerifyChain)
	protected.Get("/stock/low", stockHandler.GetLowStock)

	// Price Routes
	protected.Post("/products/:id/price", stockHandler.ChangePrice)
	protected.Get("/products/:id/price-history", stockHandler.GetPriceHistory)

	// Invoice Routes
	protected.Get("/invoices", invoiceHandler.GetInvoices)
	protected.Post("/invoices", invoiceHandler.CreateDraft)
	protected.Get("/invoices/overdue", invoiceHandler.GetOverdue)
	protected.Get("/invoices/number/:number", invoiceHandler.GetInvoiceByNumber)
	protected.Get("/invoices/:id", invoiceHandler.GetInvoice)
	protected.Post("/invoices/:id/lines", invoiceHandler.AddLine)
	protected.Post("/invoices/:id/adjustments", invoiceHandler.AddAdjustmentLine)
	protected.Post("/invoices/:id/issue", invoiceHandler.Issue)
	protected.Post("/invoices/:id/payments", invoiceHandler.ApplyPayment)
	protected.Post("/invoices/:id/cancel", invoiceHandler.Cancel)

	// Person and Payment Type Routes
	protected.Post("/persons", invoiceHandler.CreatePerson)
	protected.Delete("/persons/:id", invoiceHandler.DeletePerson)
	protected.Get("/payment-types", invoiceHandler.GetPaymentTypes)
	protected.Post("/payment-types", invoiceHandler.CreatePaymentType)
	protected.Delete("/payment-types/:id", invoiceHandler.DeletePaymentType)

	// Company Config Routes
	protected.Get("/company", invoiceHandler.GetCompanyConfig)
	protected.Put("/company", invoiceHandler.UpdateCompanyConfig)

	// Audit Routes
	protected.Get("/audit", auditHandler.GetRecent)
	protected.Get("/audit/:entity/:id", auditHandler.GetEntityHistory)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedDefaults creates the company config row and an admin user if missing.
func seedDefaults(db *gorm.DB) {
	companyRepo := repository.NewCompanyRepo(db)
	userRepo := repository.NewUserRepo(db)

	if _, err := companyRepo.Get(); err != nil {
		cfg := &model.CompanyConfig{
			Name:           "Default Company",
			InvoicePrefix:  "INV",
			DefaultTaxRate: decimal.NewFromInt(21),
			DueDays:        30,
		}
		cfg.CreatedBy = "system"
		cfg.UpdatedBy = "system"
		if err := companyRepo.Save(cfg); err != nil {
			log.Printf("Warning: Failed to seed company config: %v", err)
		} else {
			log.Println("Company config seeded")
		}
	}

	if _, err := userRepo.FindByUsername("admin"); err != nil {
		admin := &model.User{
			Username: "admin",
			Email:    "admin@example.com",
			FullName: "Administrator",
			IsActive: true,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}
		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created: admin / admin123")
		}
	}
}
