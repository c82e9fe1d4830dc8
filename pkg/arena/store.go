package arena

import "context"

// Store is the persistence contract used by Service. Implementations must
// make WithTx atomic: either every write inside fn commits or none do.
// The *ForUpdate lookups must hold their row exclusively until the
// enclosing transaction finishes, so that concurrent registrations and
// withdrawals serialize per tournament and per user.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	// Users.
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, userID uint64) (User, error)
	GetUserForUpdate(ctx context.Context, userID uint64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	// AddToBalance applies a signed delta, refusing to drive the balance
	// negative (returns ErrInsufficientBalance).
	AddToBalance(ctx context.Context, userID uint64, delta AmountCents) error

	// Games.
	CreateGame(ctx context.Context, game Game) (Game, error)
	GetGame(ctx context.Context, gameID uint64) (Game, error)
	ListGames(ctx context.Context) ([]Game, error)

	// Tournaments.
	CreateTournament(ctx context.Context, tournament Tournament) (Tournament, error)
	GetTournament(ctx context.Context, tournamentID uint64) (Tournament, error)
	GetTournamentForUpdate(ctx context.Context, tournamentID uint64) (Tournament, error)
	ListTournaments(ctx context.Context, filter TournamentFilter) ([]Tournament, error)
	UpdateTournamentStatus(ctx context.Context, tournamentID uint64, status TournamentStatus) (Tournament, error)
	// IncrementTournamentPlayers bumps current_players by one, refusing to
	// exceed max_players (returns ErrTournamentFull).
	IncrementTournamentPlayers(ctx context.Context, tournamentID uint64) error

	// Registrations.
	CreateRegistration(ctx context.Context, registration Registration) (Registration, error)
	GetRegistration(ctx context.Context, registrationID uint64) (Registration, error)
	HasRegistration(ctx context.Context, userID uint64, tournamentID uint64) (bool, error)
	ListRegistrationsByUser(ctx context.Context, userID uint64) ([]Registration, error)
	ListRegistrationsByTournament(ctx context.Context, tournamentID uint64) ([]Registration, error)
	UpdateRegistrationResult(ctx context.Context, registrationID uint64, status RegistrationStatus, placement *int, earnings AmountCents) (Registration, error)

	// Transactions (append-only).
	CreateTransaction(ctx context.Context, transaction Transaction) (Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID uint64) ([]Transaction, error)
	SumTransactionsByUser(ctx context.Context, userID uint64) (AmountCents, error)
}
