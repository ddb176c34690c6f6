package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/fortress/internal/auth"
	"github.com/MarkoPoloResearchLab/fortress/pkg/player"
)

const authHandleKey = "auth_handle"

// Server is the HTTP facade over the player service.
type Server struct {
	cfg     Config
	service *player.Service
	tokens  *auth.TokenIssuer
	logger  *zap.Logger
	router  *gin.Engine
}

// New wires the router and handlers.
func New(cfg Config, service *player.Service, tokens *auth.TokenIssuer, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	server := &Server{
		cfg:     cfg,
		service: service,
		tokens:  tokens,
		logger:  logger,
	}
	server.router = server.setupRouter()
	return server, nil
}

// Handler exposes the router for tests.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (server *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    server.cfg.ListenAddr,
		Handler: server.router,
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("game api listening", zap.String("addr", server.cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			server.logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (server *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/auth/register", server.handleRegister)
	api.POST("/auth/login", server.handleLogin)
	api.GET("/store/items", server.handleStoreItems)

	playerGroup := api.Group("/player")
	playerGroup.Use(server.tokens.GinMiddleware(authHandleKey))
	playerGroup.GET("/data", server.handleGetPlayerData)
	playerGroup.PUT("/data", server.handleUpdatePlayerData)
	playerGroup.POST("/purchase", server.handlePurchase)
	playerGroup.PUT("/weapon/:weaponName", server.handleSetWeapon)
	playerGroup.PUT("/skills/active", server.handleSetActiveSkills)
	playerGroup.DELETE("/account", server.handleDeleteAccount)

	return router
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateStatsRequest struct {
	Currency          *int64   `json:"currency" binding:"required"`
	Level             *float64 `json:"level" binding:"required"`
	Kills             *int64   `json:"kills" binding:"required"`
	SessionScore      *int64   `json:"sessionScore"`
	CurrentWeaponName *string  `json:"currentWeaponName"`
	ActiveSkillIDs    []string `json:"activeSkillIds"`
}

type purchaseRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Category string `json:"category" binding:"required"`
}

type activeSkillsRequest struct {
	ActiveSkillIDs []string `json:"activeSkillIds"`
}

func (server *Server) handleRegister(ctx *gin.Context) {
	var request registerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected username and password"))
		return
	}
	handle, err := player.NewHandle(request.Username)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	passwordHash, err := auth.HashPassword(request.Password)
	if err != nil {
		server.logger.Error("password hash failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse(errorCodeStorageError, "internal error"))
		return
	}
	if _, err := server.service.CreateAccount(ctx.Request.Context(), handle, passwordHash); err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "user registered"})
}

func (server *Server) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected username and password"))
		return
	}
	handle, err := player.NewHandle(request.Username)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	account, err := server.service.Credentials(ctx.Request.Context(), handle)
	if err != nil {
		if errors.Is(err, player.ErrAccountNotFound) {
			ctx.JSON(http.StatusUnauthorized, errorResponse("invalid_credentials", "invalid credentials"))
			return
		}
		respondDomainError(ctx, err)
		return
	}
	if err := auth.CheckPassword(account.PasswordHash, request.Password); err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("invalid_credentials", "invalid credentials"))
		return
	}
	token, expiresAt, err := server.tokens.Issue(account.Handle)
	if err != nil {
		server.logger.Error("token issue failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse(errorCodeStorageError, "internal error"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"token":    token,
		"type":     "Bearer",
		"id":       account.AccountID,
		"username": account.Handle,
		"expires":  expiresAt.Unix(),
	})
}

func (server *Server) handleGetPlayerData(ctx *gin.Context) {
	handle, ok := server.currentHandle(ctx)
	if !ok {
		return
	}
	view, err := server.service.GetSnapshot(ctx.Request.Context(), handle)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (server *Server) handleUpdatePlayerData(ctx *gin.Context) {
	handle, ok := server.currentHandle(ctx)
	if !ok {
		return
	}
	var request updateStatsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected currency, level, and kills"))
		return
	}
	update := player.StatsUpdate{
		Currency:       *request.Currency,
		Level:          *request.Level,
		Kills:          *request.Kills,
		BestScore:      request.SessionScore,
		EquippedWeapon: request.CurrentWeaponName,
		ActiveSkillIDs: request.ActiveSkillIDs,
	}
	view, err := server.service.UpdateStats(ctx.Request.Context(), handle, update)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (server *Server) handlePurchase(ctx *gin.Context) {
	handle, ok := server.currentHandle(ctx)
	if !ok {
		return
	}
	var request purchaseRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected itemId and category"))
		return
	}
	entryID, err := player.NewItemID(request.ItemID)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	category, err := player.ParseCategory(request.Category)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	view, err := server.service.PurchaseItem(ctx.Request.Context(), handle, entryID, category)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (server *Server) handleSetWeapon(ctx *gin.Context) {
	handle, ok := server.currentHandle(ctx)
	if !ok {
		return
	}
	weaponName := ctx.Param("weaponName")
	view, err := server.service.SetEquippedWeapon(ctx.Request.Context(), handle, weaponName)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (server *Server) handleSetActiveSkills(ctx *gin.Context) {
	handle, ok := server.currentHandle(ctx)
	if !ok {
		return
	}
	var request activeSkillsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected activeSkillIds"))
		return
	}
	skillIDs := request.ActiveSkillIDs
	if skillIDs == nil {
		skillIDs = []string{}
	}
	view, err := server.service.SetActiveSkills(ctx.Request.Context(), handle, skillIDs)
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (server *Server) handleDeleteAccount(ctx *gin.Context) {
	handle, ok := server.currentHandle(ctx)
	if !ok {
		return
	}
	if err := server.service.DeleteAccount(ctx.Request.Context(), handle); err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (server *Server) handleStoreItems(ctx *gin.Context) {
	views, err := server.service.ListCatalog(ctx.Request.Context())
	if err != nil {
		respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, views)
}

func (server *Server) currentHandle(ctx *gin.Context) (player.Handle, bool) {
	value, exists := ctx.Get(authHandleKey)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return player.Handle{}, false
	}
	raw, _ := value.(string)
	handle, err := player.NewHandle(raw)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid session"))
		return player.Handle{}, false
	}
	return handle, true
}
