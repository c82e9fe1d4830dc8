package arena

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

var errStubInjected = errors.New("injected store failure")

// stubStore is an in-memory Store with copy-on-begin rollback so atomicity
// assertions exercise the same all-or-nothing contract real backends give.
type stubStore struct {
	users         map[uint64]User
	games         map[uint64]Game
	tournaments   map[uint64]Tournament
	registrations map[uint64]Registration
	transactions  []Transaction

	nextUserID         uint64
	nextGameID         uint64
	nextTournamentID   uint64
	nextRegistrationID uint64
	nextTransactionID  uint64

	failCreateRegistration bool
	failIncrementPlayers   bool
}

func newStubStore() *stubStore {
	return &stubStore{
		users:              map[uint64]User{},
		games:              map[uint64]Game{},
		tournaments:        map[uint64]Tournament{},
		registrations:      map[uint64]Registration{},
		nextUserID:         1,
		nextGameID:         1,
		nextTournamentID:   1,
		nextRegistrationID: 1,
		nextTransactionID:  1,
	}
}

func (store *stubStore) snapshot() *stubStore {
	clone := &stubStore{
		users:                  map[uint64]User{},
		games:                  map[uint64]Game{},
		tournaments:            map[uint64]Tournament{},
		registrations:          map[uint64]Registration{},
		transactions:           append([]Transaction(nil), store.transactions...),
		nextUserID:             store.nextUserID,
		nextGameID:             store.nextGameID,
		nextTournamentID:       store.nextTournamentID,
		nextRegistrationID:     store.nextRegistrationID,
		nextTransactionID:      store.nextTransactionID,
		failCreateRegistration: store.failCreateRegistration,
		failIncrementPlayers:   store.failIncrementPlayers,
	}
	for id, user := range store.users {
		clone.users[id] = user
	}
	for id, game := range store.games {
		clone.games[id] = game
	}
	for id, tournament := range store.tournaments {
		clone.tournaments[id] = tournament
	}
	for id, registration := range store.registrations {
		clone.registrations[id] = registration
	}
	return clone
}

func (store *stubStore) restore(from *stubStore) {
	store.users = from.users
	store.games = from.games
	store.tournaments = from.tournaments
	store.registrations = from.registrations
	store.transactions = from.transactions
	store.nextUserID = from.nextUserID
	store.nextGameID = from.nextGameID
	store.nextTournamentID = from.nextTournamentID
	store.nextRegistrationID = from.nextRegistrationID
	store.nextTransactionID = from.nextTransactionID
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	saved := store.snapshot()
	if err := fn(ctx, store); err != nil {
		store.restore(saved)
		return err
	}
	return nil
}

func (store *stubStore) CreateUser(_ context.Context, user User) (User, error) {
	for _, existing := range store.users {
		if existing.Username == user.Username {
			return User{}, ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return User{}, ErrEmailTaken
		}
	}
	user.ID = store.nextUserID
	store.nextUserID++
	store.users[user.ID] = user
	return user, nil
}

func (store *stubStore) GetUser(_ context.Context, userID uint64) (User, error) {
	user, ok := store.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (store *stubStore) GetUserForUpdate(ctx context.Context, userID uint64) (User, error) {
	return store.GetUser(ctx, userID)
}

func (store *stubStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	for _, user := range store.users {
		if user.Username == username {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (store *stubStore) AddToBalance(_ context.Context, userID uint64, delta AmountCents) error {
	user, ok := store.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if user.BalanceCents+delta < 0 {
		return ErrInsufficientBalance
	}
	user.BalanceCents += delta
	store.users[userID] = user
	return nil
}

func (store *stubStore) CreateGame(_ context.Context, game Game) (Game, error) {
	game.ID = store.nextGameID
	store.nextGameID++
	store.games[game.ID] = game
	return game, nil
}

func (store *stubStore) GetGame(_ context.Context, gameID uint64) (Game, error) {
	game, ok := store.games[gameID]
	if !ok {
		return Game{}, ErrGameNotFound
	}
	return game, nil
}

func (store *stubStore) ListGames(_ context.Context) ([]Game, error) {
	games := make([]Game, 0, len(store.games))
	for _, game := range store.games {
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (store *stubStore) CreateTournament(_ context.Context, tournament Tournament) (Tournament, error) {
	tournament.ID = store.nextTournamentID
	store.nextTournamentID++
	store.tournaments[tournament.ID] = tournament
	return tournament, nil
}

func (store *stubStore) GetTournament(_ context.Context, tournamentID uint64) (Tournament, error) {
	tournament, ok := store.tournaments[tournamentID]
	if !ok {
		return Tournament{}, ErrTournamentNotFound
	}
	return tournament, nil
}

func (store *stubStore) GetTournamentForUpdate(ctx context.Context, tournamentID uint64) (Tournament, error) {
	return store.GetTournament(ctx, tournamentID)
}

func (store *stubStore) ListTournaments(_ context.Context, filter TournamentFilter) ([]Tournament, error) {
	tournaments := make([]Tournament, 0, len(store.tournaments))
	for _, tournament := range store.tournaments {
		if filter.GameID != 0 {
			if tournament.GameID == filter.GameID {
				tournaments = append(tournaments, tournament)
			}
			continue
		}
		switch filter.Scope {
		case ScopeFeatured:
			if !tournament.Featured {
				continue
			}
		case ScopeUpcoming:
			if tournament.Status != TournamentUpcoming {
				continue
			}
		case ScopeLive:
			if tournament.Status != TournamentLive {
				continue
			}
		case ScopeCompleted:
			if tournament.Status != TournamentCompleted {
				continue
			}
		case ScopeFree:
			if tournament.EntryFeeCents != 0 {
				continue
			}
		}
		tournaments = append(tournaments, tournament)
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })
	return tournaments, nil
}

func (store *stubStore) UpdateTournamentStatus(_ context.Context, tournamentID uint64, status TournamentStatus) (Tournament, error) {
	tournament, ok := store.tournaments[tournamentID]
	if !ok {
		return Tournament{}, ErrTournamentNotFound
	}
	tournament.Status = status
	store.tournaments[tournamentID] = tournament
	return tournament, nil
}

func (store *stubStore) IncrementTournamentPlayers(_ context.Context, tournamentID uint64) error {
	if store.failIncrementPlayers {
		return errStubInjected
	}
	tournament, ok := store.tournaments[tournamentID]
	if !ok {
		return ErrTournamentNotFound
	}
	if tournament.CurrentPlayers >= tournament.MaxPlayers {
		return ErrTournamentFull
	}
	tournament.CurrentPlayers++
	store.tournaments[tournamentID] = tournament
	return nil
}

func (store *stubStore) CreateRegistration(_ context.Context, registration Registration) (Registration, error) {
	if store.failCreateRegistration {
		return Registration{}, errStubInjected
	}
	for _, existing := range store.registrations {
		if existing.UserID == registration.UserID && existing.TournamentID == registration.TournamentID {
			return Registration{}, ErrDuplicateRegistration
		}
	}
	registration.ID = store.nextRegistrationID
	store.nextRegistrationID++
	store.registrations[registration.ID] = registration
	return registration, nil
}

func (store *stubStore) GetRegistration(_ context.Context, registrationID uint64) (Registration, error) {
	registration, ok := store.registrations[registrationID]
	if !ok {
		return Registration{}, ErrRegistrationNotFound
	}
	return registration, nil
}

func (store *stubStore) HasRegistration(_ context.Context, userID uint64, tournamentID uint64) (bool, error) {
	for _, registration := range store.registrations {
		if registration.UserID == userID && registration.TournamentID == tournamentID {
			return true, nil
		}
	}
	return false, nil
}

func (store *stubStore) ListRegistrationsByUser(_ context.Context, userID uint64) ([]Registration, error) {
	registrations := make([]Registration, 0)
	for _, registration := range store.registrations {
		if registration.UserID == userID {
			registrations = append(registrations, registration)
		}
	}
	sort.Slice(registrations, func(i, j int) bool { return registrations[i].ID < registrations[j].ID })
	return registrations, nil
}

func (store *stubStore) ListRegistrationsByTournament(_ context.Context, tournamentID uint64) ([]Registration, error) {
	registrations := make([]Registration, 0)
	for _, registration := range store.registrations {
		if registration.TournamentID == tournamentID {
			registrations = append(registrations, registration)
		}
	}
	sort.Slice(registrations, func(i, j int) bool { return registrations[i].ID < registrations[j].ID })
	return registrations, nil
}

func (store *stubStore) UpdateRegistrationResult(_ context.Context, registrationID uint64, status RegistrationStatus, placement *int, earnings AmountCents) (Registration, error) {
	registration, ok := store.registrations[registrationID]
	if !ok {
		return Registration{}, ErrRegistrationNotFound
	}
	registration.Status = status
	registration.Placement = placement
	registration.EarningsCents = earnings
	store.registrations[registrationID] = registration
	return registration, nil
}

func (store *stubStore) CreateTransaction(_ context.Context, transaction Transaction) (Transaction, error) {
	transaction.ID = store.nextTransactionID
	store.nextTransactionID++
	store.transactions = append(store.transactions, transaction)
	return transaction, nil
}

func (store *stubStore) ListTransactionsByUser(_ context.Context, userID uint64) ([]Transaction, error) {
	transactions := make([]Transaction, 0)
	for _, transaction := range store.transactions {
		if transaction.UserID == userID {
			transactions = append(transactions, transaction)
		}
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].ID > transactions[j].ID })
	return transactions, nil
}

func (store *stubStore) SumTransactionsByUser(_ context.Context, userID uint64) (AmountCents, error) {
	var sum AmountCents
	for _, transaction := range store.transactions {
		if transaction.UserID == userID {
			sum += transaction.AmountCents
		}
	}
	return sum, nil
}

func mustNewService(test *testing.T, store Store) *Service {
	test.Helper()
	service, err := NewService(store, func() time.Time { return time.Unix(1700000000, 0).UTC() })
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func seedUser(test *testing.T, store *stubStore, username string, balance AmountCents) User {
	test.Helper()
	user, err := store.CreateUser(context.Background(), User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	if err != nil {
		test.Fatalf("seed user: %v", err)
	}
	user.BalanceCents = balance
	store.users[user.ID] = user
	if balance != 0 {
		store.transactions = append(store.transactions, Transaction{
			ID:          store.nextTransactionID,
			UserID:      user.ID,
			AmountCents: balance,
			Type:        TransactionDeposit,
			Status:      TransactionCompletedStatus,
		})
		store.nextTransactionID++
	}
	return user
}

func seedTournament(test *testing.T, store *stubStore, fee AmountCents, maxPlayers int) Tournament {
	test.Helper()
	tournament, err := store.CreateTournament(context.Background(), Tournament{
		Title:          "Test Cup",
		GameID:         1,
		StartTime:      time.Unix(1700003600, 0).UTC(),
		PrizePoolCents: 500000,
		EntryFeeCents:  fee,
		MaxPlayers:     maxPlayers,
		Status:         TournamentUpcoming,
		TournamentType: "solo",
	})
	if err != nil {
		test.Fatalf("seed tournament: %v", err)
	}
	return tournament
}
