package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samifathi/invoice-api/internal/logging"
	"github.com/samifathi/invoice-api/internal/server/config"
	"github.com/samifathi/invoice-api/internal/server/models"
	"github.com/samifathi/invoice-api/internal/server/services"
)

// UserAPI is the slice of UserService the HTTP layer needs.
type UserAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	GetActiveUser(ctx context.Context, id int64) (*models.User, error)
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, in services.ProfileUpdateInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

// InvoiceAPI is the slice of InvoiceService the HTTP layer needs.
type InvoiceAPI interface {
	Create(ctx context.Context, identity *models.Identity, in services.InvoiceInput) (*models.Invoice, error)
	List(ctx context.Context, identity *models.Identity) ([]*models.Invoice, error)
	Get(ctx context.Context, identity *models.Identity, id int64) (*models.Invoice, error)
	Update(ctx context.Context, identity *models.Identity, id int64, in services.InvoiceInput) (*models.Invoice, error)
	Delete(ctx context.Context, identity *models.Identity, id int64) error
}

// Server is the HTTP front of the invoice API.
type Server struct {
	cfg       *config.Config
	logger    logging.Logger
	users     UserAPI
	invoices  InvoiceAPI
	jwtSecret []byte

	engine      *gin.Engine
	authLimiter *ipRateLimiter
	apiLimiter  *ipRateLimiter
}

// NewServer wires routes, middleware, and rate limiters onto a gin engine.
func NewServer(cfg *config.Config, logger logging.Logger, users UserAPI, invoices InvoiceAPI) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		users:       users,
		invoices:    invoices,
		jwtSecret:   []byte(cfg.SecretKey),
		authLimiter: newIPRateLimiter(cfg.AuthRateLimit, cfg.RateLimitWindow),
		apiLimiter:  newIPRateLimiter(cfg.APIRateLimit, cfg.RateLimitWindow),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/health", s.health)

	api := engine.Group("/api", rateLimit(s.apiLimiter))

	// The stricter auth limiter stacks on top of the general API limiter
	// for the credential endpoints only.
	authPublic := api.Group("/auth", rateLimit(s.authLimiter))
	authPublic.POST("/register", s.register)
	authPublic.POST("/login", s.login)

	authPrivate := api.Group("/auth", s.requireAuth())
	authPrivate.GET("/profile", s.getProfile)
	authPrivate.PUT("/profile", s.updateProfile)
	authPrivate.PUT("/change-password", s.changePassword)

	inv := api.Group("/invoices", s.requireAuth())
	inv.GET("", s.listInvoices)
	inv.GET("/:id", s.getInvoice)
	inv.POST("", s.requireRoles(models.RoleAdmin, models.RoleAccountant), s.createInvoice)
	inv.PUT("/:id", s.requireRoles(models.RoleAdmin, models.RoleAccountant), s.updateInvoice)
	inv.DELETE("/:id", s.requireRoles(models.RoleAdmin), s.deleteInvoice)

	engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	respondData(c, http.StatusOK, "API is running", gin.H{
		"environment": s.cfg.Environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	janitorDone := make(chan struct{})
	go s.authLimiter.janitor(janitorDone)
	go s.apiLimiter.janitor(janitorDone)
	defer close(janitorDone)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info(ctx, "shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
