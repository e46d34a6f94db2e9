package main

import (
	"context"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/collabnest/backend/internal/config"
	"github.com/collabnest/backend/internal/db"
	"github.com/collabnest/backend/internal/handlers"
	"github.com/collabnest/backend/internal/middleware"
	"github.com/collabnest/backend/internal/services"
	"github.com/collabnest/backend/internal/storage"
	"github.com/collabnest/backend/internal/ws"
)

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var out io.Writer = os.Stdout
	if lvl == zerolog.DebugLevel {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := newLogger(cfg.LogLevel)

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("index bootstrap failed")
	}
	log.Info().Str("db", cfg.MongoDB).Msg("connected to mongodb")

	store, err := storage.NewMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("minio connection failed")
	}

	hub := ws.NewHub(log)
	go hub.Run()

	// Services
	authSvc := services.NewAuthService(database, cfg.JWTSecret, cfg.JWTExpiry, cfg.BcryptCost, log)
	userSvc := services.NewUserService(database, log)
	trustSvc := services.NewTrustService(database, log)
	notifySvc := services.NewNotificationService(database, log)
	projectSvc := services.NewProjectService(database, trustSvc, notifySvc, log)
	messageSvc := services.NewMessageService(database, hub, log)
	reportSvc := services.NewReportService(database, notifySvc, log)
	attachSvc := services.NewAttachmentService(database, store, log)

	// Handlers
	authH := handlers.NewAuthHandler(authSvc, userSvc, log)
	userH := handlers.NewUserHandler(userSvc, trustSvc, log)
	projectH := handlers.NewProjectHandler(projectSvc, reportSvc, attachSvc, log)
	messageH := handlers.NewMessageHandler(messageSvc, log)
	notifyH := handlers.NewNotificationHandler(notifySvc, log)
	adminH := handlers.NewAdminHandler(userSvc, trustSvc, reportSvc, projectSvc, log)

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	authRequired := middleware.Auth(cfg.JWTSecret, database)
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authH.Register)
	auth.Post("/login", authH.Login)
	auth.Get("/me", authRequired, authH.Me)

	users := api.Group("/users", authRequired)
	users.Get("/", userH.List)
	users.Put("/me", userH.UpdateMe)
	users.Get("/:id", userH.Get)
	users.Get("/:id/trust", userH.Trust)
	users.Get("/:id/trust/votes", userH.VoteScore)
	users.Post("/:id/trust/votes", userH.CastVote)

	projects := api.Group("/projects", authRequired)
	projects.Post("/", projectH.Create)
	projects.Get("/", projectH.List)
	projects.Get("/:id", projectH.Get)
	projects.Put("/:id", projectH.Update)
	projects.Delete("/:id", projectH.Delete)
	projects.Post("/:id/join", projectH.Join)
	projects.Get("/:id/requests", projectH.ListRequests)
	projects.Post("/:id/requests/:reqID/approve", projectH.ApproveRequest)
	projects.Post("/:id/requests/:reqID/reject", projectH.RejectRequest)
	projects.Post("/:id/nda", projectH.SignNDA)
	projects.Delete("/:id/members/:userID", projectH.RemoveMember)
	projects.Post("/:id/tasks", projectH.CreateTask)
	projects.Get("/:id/tasks", projectH.ListTasks)
	projects.Put("/:id/tasks/:taskID", projectH.UpdateTask)
	projects.Delete("/:id/tasks/:taskID", projectH.DeleteTask)
	projects.Post("/:id/attachments", projectH.UploadAttachment)
	projects.Get("/:id/attachments", projectH.ListAttachments)
	projects.Get("/:id/attachments/:attID/url", projectH.AttachmentURL)
	projects.Delete("/:id/attachments/:attID", projectH.DeleteAttachment)
	projects.Post("/:id/reports", projectH.FileReport)

	messages := api.Group("/messages", authRequired)
	messages.Get("/:projectID", messageH.List)
	messages.Post("/:projectID", messageH.Send)
	messages.Put("/:projectID/:msgID", messageH.Edit)
	messages.Delete("/:projectID/:msgID", messageH.Delete)

	notifications := api.Group("/notifications", authRequired)
	notifications.Get("/", notifyH.List)
	notifications.Post("/read", notifyH.MarkRead)

	admin := api.Group("/admin", authRequired, middleware.AdminOnly)
	admin.Get("/users", adminH.ListUsers)
	admin.Get("/users/:id", adminH.GetUser)
	admin.Put("/users/:id/role", adminH.SetRole)
	admin.Put("/users/:id/status", adminH.SetStatus)
	admin.Post("/users/:id/trust", adminH.AdjustTrust)
	admin.Get("/reports", adminH.ListReports)
	admin.Put("/reports/:id/resolve", adminH.ResolveReport)
	admin.Delete("/projects/:id", adminH.DeleteProject)

	// Real-time channel
	app.Use("/ws", ws.Upgrade(cfg.JWTSecret, database))
	app.Get("/ws", ws.Handler(hub, messageSvc))

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
