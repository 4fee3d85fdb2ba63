package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vietanh2810/class-treasury-api/docs"
	v1 "github.com/vietanh2810/class-treasury-api/internal/api/handler/v1"
	"github.com/vietanh2810/class-treasury-api/internal/api/middleware"
	"github.com/vietanh2810/class-treasury-api/internal/config"
	"github.com/vietanh2810/class-treasury-api/internal/events"
	"github.com/vietanh2810/class-treasury-api/internal/repository"
	"github.com/vietanh2810/class-treasury-api/internal/repository/dao"
	"github.com/vietanh2810/class-treasury-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	// Feed must be started with Run for the audit stream to receive events.
	Feed *events.Feed
}

type handlers struct {
	ledger    *v1.LedgerHandler
	raffle    *v1.RaffleHandler
	audit     *v1.AuditHandler
	auditFeed *v1.AuditFeedHandler
	public    *v1.PublicHandler
}

// NewServer wires every layer on top of db. Committed audit records go to
// publisher and to the in-process feed behind the audit stream.
func NewServer(conf *config.AppConfig, db *gorm.DB, publisher events.Publisher) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Feed:   events.NewFeed(),
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(db, publisher))

	return s
}

func (s *Server) initHandlers(db *gorm.DB, publisher events.Publisher) handlers {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	auditRepo := repository.NewAuditRepository(dao.NewAuditDAO(db))
	auditSvc := service.NewAuditService(auditRepo, events.MultiPublisher{publisher, s.Feed})

	ledgerRepo := repository.NewLedgerRepository(dao.NewLedgerDAO(db))
	ledgerSvc := service.NewLedgerService(ledgerRepo, auditSvc)

	raffleRepo := repository.NewRaffleRepository(dao.NewRaffleDAO(db))
	raffleSvc := service.NewRaffleService(raffleRepo, auditSvc)

	return handlers{
		ledger:    v1.NewLedgerHandler(ledgerSvc),
		raffle:    v1.NewRaffleHandler(raffleSvc),
		audit:     v1.NewAuditHandler(auditSvc),
		auditFeed: v1.NewAuditFeedHandler(s.Feed, s.Config.API.AllowedCORSDomains),
		public:    v1.NewPublicHandler(ledgerSvc, raffleSvc),
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.Logger())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	public := s.Router.Group(basePath + "/public")
	{
		public.GET("/info", h.public.HandleInfo)
		public.GET("/raffles", h.public.HandleOpenRaffles)
	}

	finance := s.Router.Group(basePath+"/finance",
		authenticator.VerifyJWT(), middleware.RequireRole(middleware.RoleAdmin, middleware.RoleSuperadmin))
	{
		finance.GET("/wallet", h.ledger.HandleGetWallet)
		finance.GET("/balance", h.ledger.HandleGetBalance)
		finance.GET("/ledger", h.ledger.HandleListLedger)
		finance.POST("/credit", h.ledger.HandleCredit)
		finance.POST("/debit", h.ledger.HandleDebit)
		finance.POST("/reverse/:entryID", h.ledger.HandleReverse)
		finance.GET("/export/csv", h.ledger.HandleExportCSV)
	}

	raffles := s.Router.Group(basePath+"/raffles",
		authenticator.VerifyJWT(), middleware.RequireRole(middleware.RoleAdmin, middleware.RoleSuperadmin))
	{
		raffles.GET("", h.raffle.HandleListRaffles)
		raffles.POST("", h.raffle.HandleCreateRaffle)
		raffles.GET("/:raffleID", h.raffle.HandleGetRaffle)
		raffles.POST("/:raffleID/participants", h.raffle.HandleAddParticipant)
		raffles.POST("/:raffleID/draw", h.raffle.HandleDraw)
		raffles.GET("/:raffleID/draw/verify", h.raffle.HandleVerifyDraw)
		raffles.PATCH("/:raffleID/cancel", h.raffle.HandleCancelRaffle)
	}

	audit := s.Router.Group(basePath+"/audit",
		authenticator.VerifyJWT(), middleware.RequireRole(middleware.RoleSuperadmin))
	{
		audit.GET("", h.audit.HandleListAudit)
		audit.GET("/stream", h.auditFeed.HandleAuditStream)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Class treasury API"
	docs.SwaggerInfo.Description = "Ledger, raffle draws and audit trail for a class fundraising wallet."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
