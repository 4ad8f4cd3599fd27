package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"

	"tgreceiver/internal/config"
	"tgreceiver/internal/handlers"
	"tgreceiver/internal/middleware"
	"tgreceiver/internal/pdf"
	"tgreceiver/internal/provider"
	"tgreceiver/internal/repositories"
	"tgreceiver/internal/routes"
	"tgreceiver/internal/services"

	_ "tgreceiver/docs"
)

func Run() {
	cfg := config.LoadConfig()
	middleware.SetSigningKey(cfg.Auth.JWTSecret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	rateRepo := repositories.NewRateRepository(db)
	outcomeRepo := repositories.NewOutcomeRepository(db)
	operatorRepo := repositories.NewOperatorRepository(db)

	// === Telegram bot ===
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatal("Ошибка подключения к Telegram: ", err)
	}
	tg := services.NewTelegramService(bot)
	if err := tg.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
		log.Printf("[app] set webhook failed: %v", err)
	}

	// === Gateway ===
	factory := provider.NewGatewayFactory(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.DryRun)

	// === Services ===
	auditService := services.NewAuditService(tg, outcomeRepo, cfg.Telegram)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.AlertEmail,
	)
	otpService := services.NewOTPService(factory, tg)
	verificationService := services.NewVerificationService(
		otpService,
		services.NewFraudService(),
		services.NewTwoFAService(cfg.Verification.TwoFAPassword, cfg.Verification.TwoFAHint),
		services.NewExportService(),
		factory,
		auditService,
		userRepo,
		rateRepo,
		outcomeRepo,
		tg,
		emailService,
		cfg.Verification,
	)
	reportService := services.NewReportService(outcomeRepo, pdf.NewReportGenerator(cfg.Files.RootDir))

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(operatorRepo)
	botHandler := handlers.NewBotHandler(tg, verificationService, userRepo, rateRepo)
	ratesHandler := handlers.NewRatesHandler(rateRepo)
	reportHandler := handlers.NewReportHandler(reportService, verificationService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, authHandler, botHandler, ratesHandler, reportHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
