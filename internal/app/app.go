package app

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"salespipe/internal/config"
	"salespipe/internal/handlers"
	"salespipe/internal/pdf"
	"salespipe/internal/repositories"
	"salespipe/internal/routes"
	"salespipe/internal/services"
	"salespipe/pkg/logger"

	"salespipe/internal/authz"
)

func Run() {
	cfg := config.LoadConfig()
	logger.Setup(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})

	// Битая таблица прав — это баг деплоя, падаем сразу.
	if err := authz.Validate(); err != nil {
		log.Fatal().Err(err).Msg("capability table is incomplete")
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("database close failed")
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	companyRepo := repositories.NewCompanyRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	var notifiers []services.Notifier
	if cfg.Email.SMTPHost != "" {
		notifiers = append(notifiers, services.NewEmailNotifier(emailService, userRepo))
	}
	if cfg.Telegram.BotToken != "" {
		tg, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.OpsChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram notifier disabled")
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	pipelineService := services.NewPipelineService(leadRepo, companyRepo, historyRepo, notifiers...)
	boardService := services.NewBoardService(leadRepo, companyRepo)
	statsService := services.NewStatsService(leadRepo, companyRepo, historyRepo, userRepo)
	leadService := services.NewLeadService(leadRepo)
	companyService := services.NewCompanyService(companyRepo)
	userService := services.NewUserService(userRepo, emailService)

	reportGen := pdf.NewReportGenerator(cfg.Files.RootDir)

	// === Handlers ===
	jwtSecret := []byte(cfg.Auth.JWTSecret)
	authHandler := handlers.NewAuthHandler(userService, jwtSecret)
	userHandler := handlers.NewUserHandler(userService)
	boardHandler := handlers.NewBoardHandler(boardService, pipelineService)
	leadHandler := handlers.NewLeadHandler(leadService, pipelineService)
	companyHandler := handlers.NewCompanyHandler(companyService)
	reportHandler := handlers.NewReportHandler(statsService, reportGen)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(
		router,
		jwtSecret,
		authHandler,
		userHandler,
		boardHandler,
		leadHandler,
		companyHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", listenAddr).Msg("server listening")
	if err := router.Run(listenAddr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
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
