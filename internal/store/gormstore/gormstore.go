package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/arenapulse/arena/pkg/arena"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintUsersUsername           = "uniq_users_username"
	constraintUsersEmail              = "uniq_users_email"
	constraintRegistrationsUserTourn  = "uniq_registrations_user_tournament"
	pgUniqueViolationCode             = "23505"
	sqliteConstraintCode              = 19
	dialectPostgres                   = "postgres"
	errorOperationStore               = "store"
	errorSubjectUser                  = "user"
	errorSubjectGame                  = "game"
	errorSubjectTournament            = "tournament"
	errorSubjectRegistration          = "registration"
	errorSubjectTransaction           = "transaction"
	errorSubjectBalance               = "balance"
	errorCodeCreate                   = "create"
	errorCodeDuplicate                = "duplicate"
	errorCodeGet                      = "get"
	errorCodeList                     = "list"
	errorCodeUpdate                   = "update"
	errorCodeSum                      = "sum"
	errorCodeApply                    = "apply"
	errorCodeIncrement                = "increment"
)

// Store implements arena.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema. Used for sqlite deployments and tests;
// postgres schemas come from the migrations directory.
func (store *Store) Migrate() error {
	return store.db.AutoMigrate(&User{}, &Game{}, &Tournament{}, &Registration{}, &Transaction{})
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore arena.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// forUpdate adds a row lock on postgres. sqlite serializes all writers, so
// the clause (which its grammar rejects) is unnecessary there.
func (store *Store) forUpdate(db *gorm.DB) *gorm.DB {
	if store.db.Dialector.Name() == dialectPostgres {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (store *Store) CreateUser(ctx context.Context, user arena.User) (arena.User, error) {
	model := User{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		MobileNo:     user.MobileNo,
		BalanceCents: int64(user.BalanceCents),
		CreatedAt:    user.CreatedAt,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if conflict := translateUserConflict(err); conflict != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeDuplicate, conflict)
	}
	if err != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeCreate, err)
	}
	return mapUser(model), nil
}

func (store *Store) GetUser(ctx context.Context, userID uint64) (arena.User, error) {
	var model User
	err := store.db.WithContext(ctx).Take(&model, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, arena.ErrUserNotFound)
	}
	if err != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return mapUser(model), nil
}

func (store *Store) GetUserForUpdate(ctx context.Context, userID uint64) (arena.User, error) {
	var model User
	err := store.forUpdate(store.db.WithContext(ctx)).Take(&model, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, arena.ErrUserNotFound)
	}
	if err != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return mapUser(model), nil
}

func (store *Store) GetUserByUsername(ctx context.Context, username string) (arena.User, error) {
	var model User
	err := store.db.WithContext(ctx).Take(&model, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, arena.ErrUserNotFound)
	}
	if err != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return mapUser(model), nil
}

func (store *Store) AddToBalance(ctx context.Context, userID uint64, delta arena.AmountCents) error {
	result := store.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND balance_cents + ? >= 0", userID, int64(delta)).
		UpdateColumn("balance_cents", gorm.Expr("balance_cents + ?", int64(delta)))
	if result.Error != nil {
		return wrapStoreError(errorSubjectBalance, errorCodeApply, result.Error)
	}
	if result.RowsAffected == 0 {
		// Callers verify user existence first, so a miss means the guard
		// refused to drive the balance negative.
		return wrapStoreError(errorSubjectBalance, errorCodeApply, arena.ErrInsufficientBalance)
	}
	return nil
}

func (store *Store) CreateGame(ctx context.Context, game arena.Game) (arena.Game, error) {
	model := Game{Name: game.Name, ImageURL: game.ImageURL}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return arena.Game{}, wrapStoreError(errorSubjectGame, errorCodeCreate, err)
	}
	return mapGame(model), nil
}

func (store *Store) GetGame(ctx context.Context, gameID uint64) (arena.Game, error) {
	var model Game
	err := store.db.WithContext(ctx).Take(&model, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.Game{}, wrapStoreError(errorSubjectGame, errorCodeGet, arena.ErrGameNotFound)
	}
	if err != nil {
		return arena.Game{}, wrapStoreError(errorSubjectGame, errorCodeGet, err)
	}
	return mapGame(model), nil
}

func (store *Store) ListGames(ctx context.Context) ([]arena.Game, error) {
	var rows []Game
	if err := store.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectGame, errorCodeList, err)
	}
	games := make([]arena.Game, 0, len(rows))
	for _, row := range rows {
		games = append(games, mapGame(row))
	}
	return games, nil
}

func (store *Store) CreateTournament(ctx context.Context, tournament arena.Tournament) (arena.Tournament, error) {
	model := tournamentModel(tournament)
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeCreate, err)
	}
	return mapTournament(model), nil
}

func (store *Store) GetTournament(ctx context.Context, tournamentID uint64) (arena.Tournament, error) {
	var model Tournament
	err := store.db.WithContext(ctx).Take(&model, "id = ?", tournamentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeGet, arena.ErrTournamentNotFound)
	}
	if err != nil {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeGet, err)
	}
	return mapTournament(model), nil
}

func (store *Store) GetTournamentForUpdate(ctx context.Context, tournamentID uint64) (arena.Tournament, error) {
	var model Tournament
	err := store.forUpdate(store.db.WithContext(ctx)).Take(&model, "id = ?", tournamentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeGet, arena.ErrTournamentNotFound)
	}
	if err != nil {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeGet, err)
	}
	return mapTournament(model), nil
}

func (store *Store) ListTournaments(ctx context.Context, filter arena.TournamentFilter) ([]arena.Tournament, error) {
	query := store.db.WithContext(ctx).Model(&Tournament{})
	switch {
	case filter.GameID != 0:
		query = query.Where("game_id = ?", filter.GameID)
	case filter.Scope == arena.ScopeFeatured:
		query = query.Where("featured = ?", true)
	case filter.Scope == arena.ScopeUpcoming, filter.Scope == arena.ScopeLive, filter.Scope == arena.ScopeCompleted:
		query = query.Where("status = ?", string(filter.Scope))
	case filter.Scope == arena.ScopeFree:
		query = query.Where("entry_fee_cents = 0")
	}
	var rows []Tournament
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectTournament, errorCodeList, err)
	}
	tournaments := make([]arena.Tournament, 0, len(rows))
	for _, row := range rows {
		tournaments = append(tournaments, mapTournament(row))
	}
	return tournaments, nil
}

func (store *Store) UpdateTournamentStatus(ctx context.Context, tournamentID uint64, status arena.TournamentStatus) (arena.Tournament, error) {
	result := store.db.WithContext(ctx).
		Model(&Tournament{}).
		Where("id = ?", tournamentID).
		Update("status", string(status))
	if result.Error != nil {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeUpdate, arena.ErrTournamentNotFound)
	}
	return store.GetTournament(ctx, tournamentID)
}

func (store *Store) IncrementTournamentPlayers(ctx context.Context, tournamentID uint64) error {
	result := store.db.WithContext(ctx).
		Model(&Tournament{}).
		Where("id = ? AND current_players < max_players", tournamentID).
		UpdateColumn("current_players", gorm.Expr("current_players + 1"))
	if result.Error != nil {
		return wrapStoreError(errorSubjectTournament, errorCodeIncrement, result.Error)
	}
	if result.RowsAffected == 0 {
		// Callers hold the tournament row, so a miss means capacity.
		return wrapStoreError(errorSubjectTournament, errorCodeIncrement, arena.ErrTournamentFull)
	}
	return nil
}

func (store *Store) CreateRegistration(ctx context.Context, registration arena.Registration) (arena.Registration, error) {
	model := Registration{
		UserID:        registration.UserID,
		TournamentID:  registration.TournamentID,
		RegisteredAt:  registration.RegisteredAt,
		Status:        string(registration.Status),
		Placement:     registration.Placement,
		EarningsCents: int64(registration.EarningsCents),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isRegistrationConflict(err) {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeDuplicate, arena.ErrDuplicateRegistration)
	}
	if err != nil {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeCreate, err)
	}
	return mapRegistration(model), nil
}

func (store *Store) GetRegistration(ctx context.Context, registrationID uint64) (arena.Registration, error) {
	var model Registration
	err := store.db.WithContext(ctx).Take(&model, "id = ?", registrationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeGet, arena.ErrRegistrationNotFound)
	}
	if err != nil {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeGet, err)
	}
	return mapRegistration(model), nil
}

func (store *Store) HasRegistration(ctx context.Context, userID uint64, tournamentID uint64) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Registration{}).
		Where("user_id = ? AND tournament_id = ?", userID, tournamentID).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectRegistration, errorCodeGet, err)
	}
	return count > 0, nil
}

func (store *Store) ListRegistrationsByUser(ctx context.Context, userID uint64) ([]arena.Registration, error) {
	var rows []Registration
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRegistration, errorCodeList, err)
	}
	return mapRegistrations(rows), nil
}

func (store *Store) ListRegistrationsByTournament(ctx context.Context, tournamentID uint64) ([]arena.Registration, error) {
	var rows []Registration
	err := store.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRegistration, errorCodeList, err)
	}
	return mapRegistrations(rows), nil
}

func (store *Store) UpdateRegistrationResult(ctx context.Context, registrationID uint64, status arena.RegistrationStatus, placement *int, earnings arena.AmountCents) (arena.Registration, error) {
	updates := map[string]interface{}{
		"status":         string(status),
		"placement":      placement,
		"earnings_cents": int64(earnings),
	}
	result := store.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ?", registrationID).
		Updates(updates)
	if result.Error != nil {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeUpdate, arena.ErrRegistrationNotFound)
	}
	return store.GetRegistration(ctx, registrationID)
}

func (store *Store) CreateTransaction(ctx context.Context, transaction arena.Transaction) (arena.Transaction, error) {
	metadata := transaction.MetadataJSON
	if metadata == "" {
		metadata = "{}"
	}
	model := Transaction{
		UserID:       transaction.UserID,
		AmountCents:  int64(transaction.AmountCents),
		Type:         string(transaction.Type),
		Description:  transaction.Description,
		TournamentID: transaction.TournamentID,
		Reference:    transaction.Reference,
		Timestamp:    transaction.Timestamp,
		Status:       string(transaction.Status),
		Metadata:     datatypes.JSON([]byte(metadata)),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return arena.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeCreate, err)
	}
	return mapTransaction(model), nil
}

func (store *Store) ListTransactionsByUser(ctx context.Context, userID uint64) ([]arena.Transaction, error) {
	var rows []Transaction
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	transactions := make([]arena.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, mapTransaction(row))
	}
	return transactions, nil
}

func (store *Store) SumTransactionsByUser(ctx context.Context, userID uint64) (arena.AmountCents, error) {
	var sum sqlSum
	err := store.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("coalesce(sum(amount_cents),0) as total").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeSum, err)
	}
	return arena.AmountCents(sum.Total), nil
}

type sqlSum struct {
	Total int64
}

func mapUser(model User) arena.User {
	return arena.User{
		ID:           model.ID,
		Username:     model.Username,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		MobileNo:     model.MobileNo,
		BalanceCents: arena.AmountCents(model.BalanceCents),
		CreatedAt:    model.CreatedAt,
	}
}

func mapGame(model Game) arena.Game {
	return arena.Game{ID: model.ID, Name: model.Name, ImageURL: model.ImageURL}
}

func tournamentModel(tournament arena.Tournament) Tournament {
	return Tournament{
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

func mapTournament(model Tournament) arena.Tournament {
	return arena.Tournament{
		ID:             model.ID,
		Title:          model.Title,
		GameID:         model.GameID,
		Description:    model.Description,
		StartTime:      model.StartTime,
		EndTime:        model.EndTime,
		PrizePoolCents: arena.AmountCents(model.PrizePoolCents),
		EntryFeeCents:  arena.AmountCents(model.EntryFeeCents),
		MaxPlayers:     model.MaxPlayers,
		CurrentPlayers: model.CurrentPlayers,
		Status:         arena.TournamentStatus(model.Status),
		TournamentType: model.TournamentType,
		Featured:       model.Featured,
		ImageURL:       model.ImageURL,
	}
}

func mapRegistration(model Registration) arena.Registration {
	return arena.Registration{
		ID:            model.ID,
		UserID:        model.UserID,
		TournamentID:  model.TournamentID,
		RegisteredAt:  model.RegisteredAt,
		Status:        arena.RegistrationStatus(model.Status),
		Placement:     model.Placement,
		EarningsCents: arena.AmountCents(model.EarningsCents),
	}
}

func mapRegistrations(rows []Registration) []arena.Registration {
	registrations := make([]arena.Registration, 0, len(rows))
	for _, row := range rows {
		registrations = append(registrations, mapRegistration(row))
	}
	return registrations
}

func mapTransaction(model Transaction) arena.Transaction {
	return arena.Transaction{
		ID:           model.ID,
		UserID:       model.UserID,
		AmountCents:  arena.AmountCents(model.AmountCents),
		Type:         arena.TransactionType(model.Type),
		Description:  model.Description,
		TournamentID: model.TournamentID,
		Reference:    model.Reference,
		Timestamp:    model.Timestamp,
		Status:       arena.TransactionStatus(model.Status),
		MetadataJSON: string(model.Metadata),
	}
}

func wrapStoreError(subject string, code string, err error) error {
	return arena.WrapError(errorOperationStore, subject, code, err)
}

func translateUserConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
		switch pgErr.ConstraintName {
		case constraintUsersUsername:
			return arena.ErrUsernameTaken
		case constraintUsersEmail:
			return arena.ErrEmailTaken
		}
		return nil
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xFF == sqliteConstraintCode {
		// Code 19 covers every constraint class; only unique violations on
		// the user columns are duplicates.
		message := sqliteErr.Error()
		switch {
		case strings.Contains(message, "UNIQUE constraint failed: users.email"):
			return arena.ErrEmailTaken
		case strings.Contains(message, "UNIQUE constraint failed: users.username"):
			return arena.ErrUsernameTaken
		}
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return arena.ErrUsernameTaken
	}
	return nil
}

func isRegistrationConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintRegistrationsUserTourn
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode &&
			strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed: registrations.user_id")
	}
	return false
}
