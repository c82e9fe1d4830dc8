package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains the wallet and registration domain logic over a Store.
type Service struct {
	store  Store
	nowFn  func() time.Time
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// SignUp creates a user with a zero starting balance. Username and email
// uniqueness is enforced by the store (ErrUsernameTaken, ErrEmailTaken).
func (service *Service) SignUp(ctx context.Context, user User) (User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if user.Username == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrInvalidUser)
	}
	if user.Email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrInvalidUser)
	}
	if user.PasswordHash == "" {
		return User{}, fmt.Errorf("%w: password hash is required", ErrInvalidUser)
	}
	user.BalanceCents = 0
	user.CreatedAt = service.nowFn()
	return service.store.CreateUser(ctx, user)
}

// User returns a user by id.
func (service *Service) User(ctx context.Context, userID uint64) (User, error) {
	return service.store.GetUser(ctx, userID)
}

// UserByUsername returns a user by username, for credential checks.
func (service *Service) UserByUsername(ctx context.Context, username string) (User, error) {
	return service.store.GetUserByUsername(ctx, strings.TrimSpace(username))
}

// Games lists all games.
func (service *Service) Games(ctx context.Context) ([]Game, error) {
	return service.store.ListGames(ctx)
}

// Game returns a game by id.
func (service *Service) Game(ctx context.Context, gameID uint64) (Game, error) {
	return service.store.GetGame(ctx, gameID)
}

// CreateGame inserts reference data. Used by seeding and admin tooling.
func (service *Service) CreateGame(ctx context.Context, game Game) (Game, error) {
	if strings.TrimSpace(game.Name) == "" {
		return Game{}, fmt.Errorf("%w: game name is required", ErrInvalidUser)
	}
	return service.store.CreateGame(ctx, game)
}

// Tournaments lists tournaments narrowed by filter.
func (service *Service) Tournaments(ctx context.Context, filter TournamentFilter) ([]Tournament, error) {
	if filter.Scope == "" {
		filter.Scope = ScopeAll
	}
	return service.store.ListTournaments(ctx, filter)
}

// Tournament returns a tournament by id.
func (service *Service) Tournament(ctx context.Context, tournamentID uint64) (Tournament, error) {
	return service.store.GetTournament(ctx, tournamentID)
}

// CreateTournament inserts a tournament with a zero player count.
func (service *Service) CreateTournament(ctx context.Context, tournament Tournament) (Tournament, error) {
	if tournament.Status == "" {
		tournament.Status = TournamentUpcoming
	}
	if _, err := ParseTournamentStatus(string(tournament.Status)); err != nil {
		return Tournament{}, err
	}
	if tournament.MaxPlayers <= 0 {
		return Tournament{}, fmt.Errorf("%w: max players must be positive", ErrInvalidAmount)
	}
	if tournament.EntryFeeCents < 0 {
		return Tournament{}, fmt.Errorf("%w: entry fee must not be negative", ErrInvalidAmount)
	}
	tournament.CurrentPlayers = 0
	return service.store.CreateTournament(ctx, tournament)
}

// UpdateTournamentStatus transitions a tournament's lifecycle status.
func (service *Service) UpdateTournamentStatus(ctx context.Context, tournamentID uint64, status TournamentStatus) (Tournament, error) {
	parsed, err := ParseTournamentStatus(string(status))
	if err != nil {
		return Tournament{}, err
	}
	return service.store.UpdateTournamentStatus(ctx, tournamentID, parsed)
}

// UserTransactions lists a user's ledger history, newest first.
func (service *Service) UserTransactions(ctx context.Context, userID uint64) ([]Transaction, error) {
	return service.store.ListTransactionsByUser(ctx, userID)
}

// UserRegistrations lists a user's registrations joined with tournament detail.
func (service *Service) UserRegistrations(ctx context.Context, userID uint64) ([]UserTournament, error) {
	registrations, err := service.store.ListRegistrationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]UserTournament, 0, len(registrations))
	for _, registration := range registrations {
		tournament, err := service.store.GetTournament(ctx, registration.TournamentID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, UserTournament{Registration: registration, Tournament: tournament})
	}
	return entries, nil
}

// Deposit credits the user's balance and records a deposit transaction.
func (service *Service) Deposit(ctx context.Context, userID uint64, amount AmountCents, method string) (Transaction, error) {
	var created Transaction
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		if amount <= 0 {
			return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAmount)
		}
		if _, err := txStore.GetUser(ctx, userID); err != nil {
			return err
		}
		transaction, err := service.applyTransaction(ctx, txStore, Transaction{
			UserID:       userID,
			AmountCents:  amount,
			Type:         TransactionDeposit,
			Description:  fmt.Sprintf("Deposit via %s", method),
			MetadataJSON: marshalMetadata(map[string]any{"method": method}),
		})
		if err != nil {
			return err
		}
		created = transaction
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeposit,
		UserID:    userID,
		Amount:    amount,
		Reference: created.Reference,
		Error:     operationError,
	})
	if operationError != nil {
		return Transaction{}, operationError
	}
	return created, nil
}

// Withdraw debits the user's balance and records a withdrawal transaction.
// The balance check runs against the locked user row inside the same
// transaction as the write.
func (service *Service) Withdraw(ctx context.Context, userID uint64, amount AmountCents, method string) (Transaction, error) {
	var created Transaction
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		if amount <= 0 {
			return fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidAmount)
		}
		user, err := txStore.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user.BalanceCents < amount {
			return ErrInsufficientBalance
		}
		transaction, err := service.applyTransaction(ctx, txStore, Transaction{
			UserID:       userID,
			AmountCents:  -amount,
			Type:         TransactionWithdrawal,
			Description:  fmt.Sprintf("Withdrawal to %s", method),
			MetadataJSON: marshalMetadata(map[string]any{"method": method}),
		})
		if err != nil {
			return err
		}
		created = transaction
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationWithdraw,
		UserID:    userID,
		Amount:    amount,
		Reference: created.Reference,
		Error:     operationError,
	})
	if operationError != nil {
		return Transaction{}, operationError
	}
	return created, nil
}

// applyTransaction is the only code path that changes a balance: it appends
// an immutable transaction row and moves the balance by the same signed
// amount. Callers must run it inside a store transaction.
func (service *Service) applyTransaction(ctx context.Context, txStore Store, transaction Transaction) (Transaction, error) {
	if err := validateTransactionAmount(transaction.Type, transaction.AmountCents); err != nil {
		return Transaction{}, err
	}
	if transaction.Status == "" {
		transaction.Status = TransactionCompletedStatus
	}
	if transaction.MetadataJSON == "" {
		transaction.MetadataJSON = defaultMetadataJSON
	}
	transaction.Reference = uuid.NewString()
	transaction.Timestamp = service.nowFn()
	created, err := txStore.CreateTransaction(ctx, transaction)
	if err != nil {
		return Transaction{}, err
	}
	if err := txStore.AddToBalance(ctx, transaction.UserID, transaction.AmountCents); err != nil {
		return Transaction{}, err
	}
	return created, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func marshalMetadata(metadata map[string]any) string {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return defaultMetadataJSON
	}
	return string(raw)
}
