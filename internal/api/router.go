package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pano-service/internal/middleware"
	"pano-service/internal/model"
	"pano-service/internal/service"
	authSvc "pano-service/internal/service/auth"
	"pano-service/internal/service/game"
	"pano-service/internal/ws"
	appErr "pano-service/pkg/errors"
	"pano-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/pano/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
		}

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/profile", handler.GetProfile)
		}

		v1.GET("/tables", handler.ListTables)

		tableGroup := v1.Group("/table")
		tableGroup.Use(middleware.AuthRequired())
		{
			tableGroup.GET("/:id", handler.GetTable)
			tableGroup.GET("/:id/state", handler.TableState)
			tableGroup.POST("/:id/join", handler.JoinTable)
			tableGroup.POST("/:id/leave", handler.LeaveTable)
			tableGroup.POST("/:id/action", handler.TableAction)
		}

		walletGroup := v1.Group("/wallet")
		walletGroup.Use(middleware.AuthRequired())
		{
			walletGroup.GET("", handler.GetWallet)
			walletGroup.POST("/deposit", handler.Deposit)
			walletGroup.POST("/withdraw", handler.Withdraw)
			walletGroup.GET("/history", handler.WalletHistory)
		}
	}

	r.GET("/ws/table/:tableId", wsHandler.HandleTableWS)
}

type registerBody struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginBody struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type joinTableBody struct {
	BuyIn int64 `json:"buyIn" binding:"required,min=1"`
}

type tableActionBody struct {
	Action string `json:"action" binding:"required"`
	Amount int64  `json:"amount"`
}

type amountBody struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

func (h *Handler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), authSvc.RegisterParams{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, appErr.ErrUsernameTaken), errors.Is(err, appErr.ErrEmailTaken):
			response.Error(c, http.StatusConflict, err.Error())
		case errors.Is(err, appErr.ErrInvalidCredentials):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.Success(c, gin.H{
		"userId":     strconv.FormatInt(user.ID, 10),
		"username":   user.Username,
		"inviteCode": user.InviteCode,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), body.Identifier, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, appErr.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, appErr.ErrUnauthorized):
			response.Error(c, http.StatusForbidden, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.Success(c, gin.H{
		"token":    result.Token,
		"expireAt": result.ExpireAt,
		"user": gin.H{
			"id":         strconv.FormatInt(result.User.ID, 10),
			"username":   result.User.Username,
			"email":      result.User.Email,
			"inviteCode": result.User.InviteCode,
		},
	})
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.services.Auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, appErr.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"id":         strconv.FormatInt(user.ID, 10),
		"username":   user.Username,
		"email":      user.Email,
		"inviteCode": user.InviteCode,
		"status":     user.Status,
		"createdAt":  user.CreatedAt,
	})
}

func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.services.Lobby.ListTables(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"tables": tables})
}

func (h *Handler) GetTable(c *gin.Context) {
	tableID, err := parseInt64Param(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return
	}

	table, err := h.services.Lobby.GetTable(c.Request.Context(), tableID)
	if err != nil {
		if errors.Is(err, appErr.ErrTableNotFound) {
			response.Error(c, http.StatusNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{"table": table})
}

func (h *Handler) JoinTable(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	tableID, err := parseInt64Param(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return
	}

	var body joinTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	seatIdx, err := h.services.Game.JoinTable(c.Request.Context(), userID, tableID, body.BuyIn)
	if err != nil {
		h.handleTableError(c, err)
		return
	}

	response.Success(c, gin.H{
		"tableId":   strconv.FormatInt(tableID, 10),
		"seatIndex": seatIdx,
		"buyIn":     body.BuyIn,
	})
}

func (h *Handler) LeaveTable(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	tableID, err := parseInt64Param(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return
	}

	stack, pending, err := h.services.Game.LeaveTable(c.Request.Context(), userID, tableID)
	if err != nil {
		h.handleTableError(c, err)
		return
	}

	if pending {
		response.SuccessWithMsg(c, gin.H{"status": "pending"}, "seat folded, cash-out after the current hand")
		return
	}
	response.Success(c, gin.H{"status": "left", "cashOut": stack})
}

// TableState returns the live view of a running table: street, community
// cards, pot, acting seat and public seat state. Hole cards show only for
// the caller's own seat.
func (h *Handler) TableState(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	tableID, err := parseInt64Param(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return
	}

	rt, err := h.services.Game.GetRuntime(c.Request.Context(), tableID)
	if err != nil {
		h.handleTableError(c, err)
		return
	}
	response.Success(c, rt.State(userID))
}

// TableAction submits a betting action over HTTP; the same contract as the
// websocket channel.
func (h *Handler) TableAction(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	tableID, err := parseInt64Param(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid table id")
		return
	}

	var body tableActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	rt, err := h.services.Game.GetRuntime(c.Request.Context(), tableID)
	if err != nil {
		h.handleTableError(c, err)
		return
	}

	payload, _ := json.Marshal(gin.H{"amount": body.Amount})
	if err := rt.HandleAction(userID, body.Action, payload); err != nil {
		h.handleActionError(c, err)
		return
	}
	response.Success(c, rt.State(userID))
}

func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	wallet, err := h.services.Wallet.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) Deposit(c *gin.Context) {
	h.walletMutation(c, h.services.Wallet.Deposit)
}

func (h *Handler) Withdraw(c *gin.Context) {
	h.walletMutation(c, h.services.Wallet.Withdraw)
}

func (h *Handler) walletMutation(c *gin.Context, op func(ctx context.Context, userID, amount int64) (*model.Wallet, error)) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body amountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	wallet, err := op(c.Request.Context(), userID, body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, appErr.ErrInvalidAmount):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, appErr.ErrInsufficientFunds):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) WalletHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.services.Wallet.History(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, history)
}

func (h *Handler) handleActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrSeatNotFound):
		response.Error(c, http.StatusForbidden, appErr.ErrTableAccessDenied.Error())
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrInvalidActionForState),
		errors.Is(err, game.ErrInsufficientStack),
		errors.Is(err, game.ErrTableNotInHand):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) handleTableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrTableNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrInvalidBuyIn):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrInsufficientFunds):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrTableFull):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrAlreadySeated):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrNotSeated):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func parseInt64Param(c *gin.Context, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidParam
	}
	return id, nil
}

var errInvalidParam = errors.New("invalid parameter")

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, errInvalidParam
	}
	return parsed, nil
}

func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
