package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arenapulse/arena/pkg/arena"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const minimumPasswordLength = 8

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	MobileNo string `json:"mobile_no"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type walletRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
}

type createTournamentRequest struct {
	Title          string    `json:"title"`
	GameID         uint64    `json:"game_id"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time"`
	PrizePoolCents int64     `json:"prize_pool_cents"`
	EntryFeeCents  int64     `json:"entry_fee_cents"`
	MaxPlayers     int       `json:"max_players"`
	TournamentType string    `json:"tournament_type"`
	Featured       bool      `json:"featured"`
	ImageURL       string    `json:"image_url"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type recordResultRequest struct {
	Placement     int   `json:"placement"`
	EarningsCents int64 `json:"earnings_cents"`
}

type userPayload struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	MobileNo     string    `json:"mobile_no,omitempty"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type gamePayload struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

type tournamentPayload struct {
	ID             uint64     `json:"id"`
	Title          string     `json:"title"`
	GameID         uint64     `json:"game_id"`
	Description    string     `json:"description,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	PrizePoolCents int64      `json:"prize_pool_cents"`
	EntryFeeCents  int64      `json:"entry_fee_cents"`
	MaxPlayers     int        `json:"max_players"`
	CurrentPlayers int        `json:"current_players"`
	Status         string     `json:"status"`
	TournamentType string     `json:"tournament_type,omitempty"`
	Featured       bool       `json:"featured"`
	ImageURL       string     `json:"image_url,omitempty"`
}

type registrationPayload struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	TournamentID  uint64    `json:"tournament_id"`
	RegisteredAt  time.Time `json:"registered_at"`
	Status        string    `json:"status"`
	Placement     *int      `json:"placement,omitempty"`
	EarningsCents int64     `json:"earnings_cents"`
}

type userTournamentPayload struct {
	Registration registrationPayload `json:"registration"`
	Tournament   tournamentPayload   `json:"tournament"`
}

type transactionPayload struct {
	ID           uint64    `json:"id"`
	AmountCents  int64     `json:"amount_cents"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	TournamentID *uint64   `json:"tournament_id,omitempty"`
	Reference    string    `json:"reference"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
}

func (server *Server) handleSignUp(ctx *gin.Context) {
	var request signUpRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	if len(request.Password) < minimumPasswordLength {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_password", "password must be at least 8 characters"))
		return
	}
	passwordHash, err := HashPassword(request.Password)
	if err != nil {
		server.logger.Error("password hash failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "could not create user"))
		return
	}
	user, err := server.service.SignUp(ctx.Request.Context(), arena.User{
		Username:     request.Username,
		Email:        request.Email,
		PasswordHash: passwordHash,
		MobileNo:     request.MobileNo,
	})
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	token, err := server.auth.IssueToken(user.ID, server.cfg.IsAdminUsername(user.Username))
	if err != nil {
		server.logger.Error("token issue failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "could not issue token"))
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  toUserPayload(user),
	})
}

func (server *Server) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	user, err := server.service.UserByUsername(ctx.Request.Context(), request.Username)
	if err != nil {
		if errors.Is(err, arena.ErrUserNotFound) {
			ctx.JSON(http.StatusUnauthorized, errorResponse("invalid_credentials", "wrong username or password"))
			return
		}
		server.respondServiceError(ctx, err)
		return
	}
	if !CheckPassword(user.PasswordHash, request.Password) {
		ctx.JSON(http.StatusUnauthorized, errorResponse("invalid_credentials", "wrong username or password"))
		return
	}
	token, err := server.auth.IssueToken(user.ID, server.cfg.IsAdminUsername(user.Username))
	if err != nil {
		server.logger.Error("token issue failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "could not issue token"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  toUserPayload(user),
	})
}

func (server *Server) handleCurrentUser(ctx *gin.Context) {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	user, err := server.service.User(ctx.Request.Context(), userID)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": toUserPayload(user)})
}

func (server *Server) handleListGames(ctx *gin.Context) {
	games, err := server.service.Games(ctx.Request.Context())
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	payload := make([]gamePayload, 0, len(games))
	for _, game := range games {
		payload = append(payload, toGamePayload(game))
	}
	ctx.JSON(http.StatusOK, gin.H{"games": payload})
}

func (server *Server) handleGetGame(ctx *gin.Context) {
	gameID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	game, err := server.service.Game(ctx.Request.Context(), gameID)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"game": toGamePayload(game)})
}

func (server *Server) handleListTournaments(ctx *gin.Context) {
	scope, err := arena.ParseTournamentScope(ctx.Query("scope"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_scope", err.Error()))
		return
	}
	filter := arena.TournamentFilter{Scope: scope}
	if rawGameID := ctx.Query("game_id"); rawGameID != "" {
		gameID, err := strconv.ParseUint(rawGameID, 10, 64)
		if err != nil || gameID == 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_game_id", "game_id must be a positive integer"))
			return
		}
		filter.GameID = gameID
	}
	tournaments, err := server.service.Tournaments(ctx.Request.Context(), filter)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	payload := make([]tournamentPayload, 0, len(tournaments))
	for _, tournament := range tournaments {
		payload = append(payload, toTournamentPayload(tournament))
	}
	ctx.JSON(http.StatusOK, gin.H{"tournaments": payload})
}

func (server *Server) handleGetTournament(ctx *gin.Context) {
	tournamentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	tournament, err := server.service.Tournament(ctx.Request.Context(), tournamentID)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tournament": toTournamentPayload(tournament)})
}

func (server *Server) handleCreateTournament(ctx *gin.Context) {
	var request createTournamentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	tournament, err := server.service.CreateTournament(ctx.Request.Context(), arena.Tournament{
		Title:          request.Title,
		GameID:         request.GameID,
		Description:    request.Description,
		StartTime:      request.StartTime,
		PrizePoolCents: arena.AmountCents(request.PrizePoolCents),
		EntryFeeCents:  arena.AmountCents(request.EntryFeeCents),
		MaxPlayers:     request.MaxPlayers,
		TournamentType: request.TournamentType,
		Featured:       request.Featured,
		ImageURL:       request.ImageURL,
	})
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"tournament": toTournamentPayload(tournament)})
}

func (server *Server) handleUpdateTournamentStatus(ctx *gin.Context) {
	tournamentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var request updateStatusRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	tournament, err := server.service.UpdateTournamentStatus(ctx.Request.Context(), tournamentID, arena.TournamentStatus(request.Status))
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tournament": toTournamentPayload(tournament)})
}

func (server *Server) handleRegister(ctx *gin.Context) {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	tournamentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	registration, err := server.service.Register(ctx.Request.Context(), userID, tournamentID)
	observeRegistration(err)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"registration": toRegistrationPayload(registration)})
}

func (server *Server) handleRecordResult(ctx *gin.Context) {
	registrationID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var request recordResultRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	registration, err := server.service.RecordResult(ctx.Request.Context(), registrationID, request.Placement, arena.AmountCents(request.EarningsCents))
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"registration": toRegistrationPayload(registration)})
}

func (server *Server) handleUserTournaments(ctx *gin.Context) {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	entries, err := server.service.UserRegistrations(ctx.Request.Context(), userID)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	payload := make([]userTournamentPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, userTournamentPayload{
			Registration: toRegistrationPayload(entry.Registration),
			Tournament:   toTournamentPayload(entry.Tournament),
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"tournaments": payload})
}

func (server *Server) handleListTransactions(ctx *gin.Context) {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	transactions, err := server.service.UserTransactions(ctx.Request.Context(), userID)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	payload := make([]transactionPayload, 0, len(transactions))
	for _, transaction := range transactions {
		payload = append(payload, toTransactionPayload(transaction))
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": payload})
}

func (server *Server) handleDeposit(ctx *gin.Context) {
	server.handleWalletOperation(ctx, "deposit", server.service.Deposit)
}

func (server *Server) handleWithdraw(ctx *gin.Context) {
	server.handleWalletOperation(ctx, "withdraw", server.service.Withdraw)
}

func (server *Server) handleWalletOperation(
	ctx *gin.Context,
	operation string,
	apply func(requestCtx context.Context, userID uint64, amount arena.AmountCents, method string) (arena.Transaction, error),
) {
	userID, ok := authenticatedUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request walletRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	method := request.Method
	if method == "" {
		method = "wallet"
	}
	transaction, err := apply(ctx.Request.Context(), userID, arena.AmountCents(request.AmountCents), method)
	observeWalletOperation(operation, err)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	user, err := server.service.User(ctx.Request.Context(), userID)
	if err != nil {
		server.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"transaction":   toTransactionPayload(transaction),
		"balance_cents": int64(user.BalanceCents),
	})
}

func (server *Server) respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, arena.ErrUserNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("user_not_found", "user does not exist"))
	case errors.Is(err, arena.ErrGameNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("game_not_found", "game does not exist"))
	case errors.Is(err, arena.ErrTournamentNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("tournament_not_found", "tournament does not exist"))
	case errors.Is(err, arena.ErrRegistrationNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("registration_not_found", "registration does not exist"))
	case errors.Is(err, arena.ErrUsernameTaken):
		ctx.JSON(http.StatusConflict, errorResponse("username_taken", "username already exists"))
	case errors.Is(err, arena.ErrEmailTaken):
		ctx.JSON(http.StatusConflict, errorResponse("email_taken", "email already exists"))
	case errors.Is(err, arena.ErrDuplicateRegistration):
		ctx.JSON(http.StatusConflict, errorResponse("already_registered", "user is already registered for this tournament"))
	case errors.Is(err, arena.ErrTournamentFull):
		ctx.JSON(http.StatusConflict, errorResponse("tournament_full", "tournament has no open slots"))
	case errors.Is(err, arena.ErrInsufficientBalance):
		ctx.JSON(http.StatusBadRequest, errorResponse("insufficient_balance", "balance is too low for this operation"))
	case errors.Is(err, arena.ErrResultAlreadyRecorded):
		ctx.JSON(http.StatusConflict, errorResponse("result_already_recorded", "a result was already recorded for this registration"))
	case errors.Is(err, arena.ErrInvalidAmount),
		errors.Is(err, arena.ErrInvalidPlacement),
		errors.Is(err, arena.ErrInvalidUser),
		errors.Is(err, arena.ErrInvalidTournamentScope),
		errors.Is(err, arena.ErrInvalidTournamentStatus),
		errors.Is(err, arena.ErrInvalidTransactionType):
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
	default:
		server.logger.Error("request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "unexpected failure"))
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint64, bool) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || value == 0 {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_id", "id must be a positive integer"))
		return 0, false
	}
	return value, true
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func toUserPayload(user arena.User) userPayload {
	return userPayload{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		MobileNo:     user.MobileNo,
		BalanceCents: int64(user.BalanceCents),
		CreatedAt:    user.CreatedAt,
	}
}

func toGamePayload(game arena.Game) gamePayload {
	return gamePayload{ID: game.ID, Name: game.Name, ImageURL: game.ImageURL}
}

func toTournamentPayload(tournament arena.Tournament) tournamentPayload {
	return tournamentPayload{
		ID:             tournament.ID,
		Title:          tournament.Title,
		GameID:         tournament.GameID,
		Description:    tournament.Description,
		StartTime:      tournament.StartTime,
		EndTime:        tournament.EndTime,
		PrizePoolCents: int64(tournament.PrizePoolCents),
		EntryFeeCents:  int64(tournament.EntryFeeCents),
		MaxPlayers:     tournament.MaxPlayers,
		CurrentPlayers: tournament.CurrentPlayers,
		Status:         string(tournament.Status),
		TournamentType: tournament.TournamentType,
		Featured:       tournament.Featured,
		ImageURL:       tournament.ImageURL,
	}
}

func toRegistrationPayload(registration arena.Registration) registrationPayload {
	return registrationPayload{
		ID:            registration.ID,
		UserID:        registration.UserID,
		TournamentID:  registration.TournamentID,
		RegisteredAt:  registration.RegisteredAt,
		Status:        string(registration.Status),
		Placement:     registration.Placement,
		EarningsCents: int64(registration.EarningsCents),
	}
}

func toTransactionPayload(transaction arena.Transaction) transactionPayload {
	return transactionPayload{
		ID:           transaction.ID,
		AmountCents:  int64(transaction.AmountCents),
		Type:         string(transaction.Type),
		Description:  transaction.Description,
		TournamentID: transaction.TournamentID,
		Reference:    transaction.Reference,
		Timestamp:    transaction.Timestamp,
		Status:       string(transaction.Status),
	}
}
