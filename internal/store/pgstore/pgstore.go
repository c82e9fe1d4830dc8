package pgstore

import (
	"context"
	"errors"

	"github.com/arenapulse/arena/pkg/arena"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	constraintUsersUsername          = "uniq_users_username"
	constraintUsersEmail             = "uniq_users_email"
	constraintRegistrationsUserTourn = "uniq_registrations_user_tournament"
	pgUniqueViolationCode            = "23505"
	errorOperationStore              = "store"
	errorSubjectUser                 = "user"
	errorSubjectGame                 = "game"
	errorSubjectTournament           = "tournament"
	errorSubjectRegistration         = "registration"
	errorSubjectTransaction          = "transaction"
	errorSubjectTx                   = "tx"
	errorCodeBegin                   = "begin"
	errorCodeCommit                  = "commit"
	errorCodeCreate                  = "create"
	errorCodeDuplicate               = "duplicate"
	errorCodeGet                     = "get"
	errorCodeInsert                  = "insert"
	errorCodeList                    = "list"
	errorCodeLookup                  = "lookup"
	errorCodeSum                     = "sum"
	errorCodeUpdate                  = "update"

	sqlInsertUser = `
		insert into users(username, email, password_hash, mobile_no, balance_cents, created_at)
		values($1, $2, $3, $4, $5, $6)
		returning id
	`

	sqlSelectUser = `
		select id, username, email, password_hash, mobile_no, balance_cents, created_at
		from users
		where id = $1
	`

	sqlSelectUserForUpdate = sqlSelectUser + ` for update`

	sqlSelectUserByUsername = `
		select id, username, email, password_hash, mobile_no, balance_cents, created_at
		from users
		where username = $1
	`

	sqlAddToBalance = `
		update users
		set balance_cents = balance_cents + $2
		where id = $1 and balance_cents + $2 >= 0
	`

	sqlInsertGame = `
		insert into games(name, image_url) values($1, $2) returning id
	`

	sqlSelectGame = `
		select id, name, image_url from games where id = $1
	`

	sqlListGames = `
		select id, name, image_url from games order by id
	`

	sqlInsertTournament = `
		insert into tournaments(
			title, game_id, description, start_time, end_time,
			prize_pool_cents, entry_fee_cents, max_players, current_players,
			status, tournament_type, featured, image_url
		)
		values($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		returning id
	`

	sqlSelectTournamentColumns = `
		select id, title, game_id, description, start_time, end_time,
			prize_pool_cents, entry_fee_cents, max_players, current_players,
			status, tournament_type, featured, image_url
		from tournaments
	`

	sqlSelectTournament          = sqlSelectTournamentColumns + ` where id = $1`
	sqlSelectTournamentForUpdate = sqlSelectTournament + ` for update`

	sqlUpdateTournamentStatus = `
		update tournaments set status = $2 where id = $1
	`

	sqlIncrementTournamentPlayers = `
		update tournaments
		set current_players = current_players + 1
		where id = $1 and current_players < max_players
	`

	sqlInsertRegistration = `
		insert into registrations(user_id, tournament_id, registered_at, status, placement, earnings_cents)
		values($1, $2, $3, $4, $5, $6)
		returning id
	`

	sqlSelectRegistrationColumns = `
		select id, user_id, tournament_id, registered_at, status, placement, earnings_cents
		from registrations
	`

	sqlSelectRegistration = sqlSelectRegistrationColumns + ` where id = $1`

	sqlRegistrationExists = `
		select exists(
			select 1 from registrations where user_id = $1 and tournament_id = $2
		)
	`

	sqlListRegistrationsByUser = sqlSelectRegistrationColumns + `
		where user_id = $1 order by registered_at desc, id desc
	`

	sqlListRegistrationsByTournament = sqlSelectRegistrationColumns + `
		where tournament_id = $1 order by id
	`

	sqlUpdateRegistrationResult = `
		update registrations
		set status = $2, placement = $3, earnings_cents = $4
		where id = $1
	`

	sqlInsertTransaction = `
		insert into transactions(
			user_id, amount_cents, type, description, tournament_id,
			reference, "timestamp", status, metadata
		)
		values($1, $2, $3, $4, $5, $6, $7, $8, coalesce(nullif($9,''),'{}')::jsonb)
		returning id
	`

	sqlListTransactionsByUser = `
		select id, user_id, amount_cents, type, description, tournament_id,
			reference, "timestamp", status, coalesce(metadata::text,'{}')
		from transactions
		where user_id = $1
		order by "timestamp" desc, id desc
	`

	sqlSumTransactionsByUser = `
		select coalesce(sum(amount_cents),0) from transactions where user_id = $1
	`
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements arena.Store on PostgreSQL via pgx. Outside WithTx it
// runs in autocommit mode; inside WithTx every call rides the open
// transaction, so the row locks taken by the ForUpdate lookups hold until
// commit.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore arena.Store) error) error {
	if store.pool == nil {
		return fn(ctx, store)
	}
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTx, errorCodeBegin, err)
	}
	if err := fn(ctx, &Store{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTx, errorCodeCommit, err)
	}
	return nil
}

func (store *Store) CreateUser(ctx context.Context, user arena.User) (arena.User, error) {
	err := store.db.QueryRow(ctx, sqlInsertUser,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.MobileNo,
		int64(user.BalanceCents),
		user.CreatedAt,
	).Scan(&user.ID)
	if conflict := translateUserConflict(err); conflict != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeDuplicate, conflict)
	}
	if err != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeCreate, err)
	}
	return user, nil
}

func (store *Store) GetUser(ctx context.Context, userID uint64) (arena.User, error) {
	return store.getUser(ctx, sqlSelectUser, userID)
}

func (store *Store) GetUserForUpdate(ctx context.Context, userID uint64) (arena.User, error) {
	return store.getUser(ctx, sqlSelectUserForUpdate, userID)
}

func (store *Store) getUser(ctx context.Context, query string, userID uint64) (arena.User, error) {
	user, err := scanUser(store.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, arena.ErrUserNotFound)
	}
	if err != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return user, nil
}

func (store *Store) GetUserByUsername(ctx context.Context, username string) (arena.User, error) {
	user, err := scanUser(store.db.QueryRow(ctx, sqlSelectUserByUsername, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeLookup, arena.ErrUserNotFound)
	}
	if err != nil {
		return arena.User{}, wrapStoreError(errorSubjectUser, errorCodeLookup, err)
	}
	return user, nil
}

func (store *Store) AddToBalance(ctx context.Context, userID uint64, delta arena.AmountCents) error {
	tag, err := store.db.Exec(ctx, sqlAddToBalance, userID, int64(delta))
	if err != nil {
		return wrapStoreError(errorSubjectUser, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectUser, errorCodeUpdate, arena.ErrInsufficientBalance)
	}
	return nil
}

func (store *Store) CreateGame(ctx context.Context, game arena.Game) (arena.Game, error) {
	err := store.db.QueryRow(ctx, sqlInsertGame, game.Name, game.ImageURL).Scan(&game.ID)
	if err != nil {
		return arena.Game{}, wrapStoreError(errorSubjectGame, errorCodeCreate, err)
	}
	return game, nil
}

func (store *Store) GetGame(ctx context.Context, gameID uint64) (arena.Game, error) {
	var game arena.Game
	err := store.db.QueryRow(ctx, sqlSelectGame, gameID).Scan(&game.ID, &game.Name, &game.ImageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return arena.Game{}, wrapStoreError(errorSubjectGame, errorCodeGet, arena.ErrGameNotFound)
	}
	if err != nil {
		return arena.Game{}, wrapStoreError(errorSubjectGame, errorCodeGet, err)
	}
	return game, nil
}

func (store *Store) ListGames(ctx context.Context) ([]arena.Game, error) {
	rows, err := store.db.Query(ctx, sqlListGames)
	if err != nil {
		return nil, wrapStoreError(errorSubjectGame, errorCodeList, err)
	}
	defer rows.Close()
	games := make([]arena.Game, 0, 16)
	for rows.Next() {
		var game arena.Game
		if err := rows.Scan(&game.ID, &game.Name, &game.ImageURL); err != nil {
			return nil, wrapStoreError(errorSubjectGame, errorCodeList, err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectGame, errorCodeList, err)
	}
	return games, nil
}

func (store *Store) CreateTournament(ctx context.Context, tournament arena.Tournament) (arena.Tournament, error) {
	err := store.db.QueryRow(ctx, sqlInsertTournament,
		tournament.Title,
		tournament.GameID,
		tournament.Description,
		tournament.StartTime,
		tournament.EndTime,
		int64(tournament.PrizePoolCents),
		int64(tournament.EntryFeeCents),
		tournament.MaxPlayers,
		tournament.CurrentPlayers,
		string(tournament.Status),
		tournament.TournamentType,
		tournament.Featured,
		tournament.ImageURL,
	).Scan(&tournament.ID)
	if err != nil {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeCreate, err)
	}
	return tournament, nil
}

func (store *Store) GetTournament(ctx context.Context, tournamentID uint64) (arena.Tournament, error) {
	return store.getTournament(ctx, sqlSelectTournament, tournamentID)
}

func (store *Store) GetTournamentForUpdate(ctx context.Context, tournamentID uint64) (arena.Tournament, error) {
	return store.getTournament(ctx, sqlSelectTournamentForUpdate, tournamentID)
}

func (store *Store) getTournament(ctx context.Context, query string, tournamentID uint64) (arena.Tournament, error) {
	tournament, err := scanTournament(store.db.QueryRow(ctx, query, tournamentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeGet, arena.ErrTournamentNotFound)
	}
	if err != nil {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeGet, err)
	}
	return tournament, nil
}

func (store *Store) ListTournaments(ctx context.Context, filter arena.TournamentFilter) ([]arena.Tournament, error) {
	query := sqlSelectTournamentColumns
	args := []any{}
	switch {
	case filter.GameID != 0:
		query += ` where game_id = $1`
		args = append(args, filter.GameID)
	case filter.Scope == arena.ScopeFeatured:
		query += ` where featured`
	case filter.Scope == arena.ScopeFree:
		query += ` where entry_fee_cents = 0`
	case filter.Scope == arena.ScopeUpcoming, filter.Scope == arena.ScopeLive, filter.Scope == arena.ScopeCompleted:
		query += ` where status = $1`
		args = append(args, string(filter.Scope))
	}
	query += ` order by id`
	rows, err := store.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError(errorSubjectTournament, errorCodeList, err)
	}
	defer rows.Close()
	tournaments := make([]arena.Tournament, 0, 32)
	for rows.Next() {
		tournament, err := scanTournament(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectTournament, errorCodeList, err)
		}
		tournaments = append(tournaments, tournament)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectTournament, errorCodeList, err)
	}
	return tournaments, nil
}

func (store *Store) UpdateTournamentStatus(ctx context.Context, tournamentID uint64, status arena.TournamentStatus) (arena.Tournament, error) {
	tag, err := store.db.Exec(ctx, sqlUpdateTournamentStatus, tournamentID, string(status))
	if err != nil {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return arena.Tournament{}, wrapStoreError(errorSubjectTournament, errorCodeUpdate, arena.ErrTournamentNotFound)
	}
	return store.GetTournament(ctx, tournamentID)
}

func (store *Store) IncrementTournamentPlayers(ctx context.Context, tournamentID uint64) error {
	tag, err := store.db.Exec(ctx, sqlIncrementTournamentPlayers, tournamentID)
	if err != nil {
		return wrapStoreError(errorSubjectTournament, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectTournament, errorCodeUpdate, arena.ErrTournamentFull)
	}
	return nil
}

func (store *Store) CreateRegistration(ctx context.Context, registration arena.Registration) (arena.Registration, error) {
	err := store.db.QueryRow(ctx, sqlInsertRegistration,
		registration.UserID,
		registration.TournamentID,
		registration.RegisteredAt,
		string(registration.Status),
		registration.Placement,
		int64(registration.EarningsCents),
	).Scan(&registration.ID)
	if isRegistrationConflict(err) {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeDuplicate, arena.ErrDuplicateRegistration)
	}
	if err != nil {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeCreate, err)
	}
	return registration, nil
}

func (store *Store) GetRegistration(ctx context.Context, registrationID uint64) (arena.Registration, error) {
	registration, err := scanRegistration(store.db.QueryRow(ctx, sqlSelectRegistration, registrationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeGet, arena.ErrRegistrationNotFound)
	}
	if err != nil {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeGet, err)
	}
	return registration, nil
}

func (store *Store) HasRegistration(ctx context.Context, userID uint64, tournamentID uint64) (bool, error) {
	var exists bool
	err := store.db.QueryRow(ctx, sqlRegistrationExists, userID, tournamentID).Scan(&exists)
	if err != nil {
		return false, wrapStoreError(errorSubjectRegistration, errorCodeLookup, err)
	}
	return exists, nil
}

func (store *Store) ListRegistrationsByUser(ctx context.Context, userID uint64) ([]arena.Registration, error) {
	return store.listRegistrations(ctx, sqlListRegistrationsByUser, userID)
}

func (store *Store) ListRegistrationsByTournament(ctx context.Context, tournamentID uint64) ([]arena.Registration, error) {
	return store.listRegistrations(ctx, sqlListRegistrationsByTournament, tournamentID)
}

func (store *Store) listRegistrations(ctx context.Context, query string, key uint64) ([]arena.Registration, error) {
	rows, err := store.db.Query(ctx, query, key)
	if err != nil {
		return nil, wrapStoreError(errorSubjectRegistration, errorCodeList, err)
	}
	defer rows.Close()
	registrations := make([]arena.Registration, 0, 16)
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectRegistration, errorCodeList, err)
		}
		registrations = append(registrations, registration)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectRegistration, errorCodeList, err)
	}
	return registrations, nil
}

func (store *Store) UpdateRegistrationResult(ctx context.Context, registrationID uint64, status arena.RegistrationStatus, placement *int, earnings arena.AmountCents) (arena.Registration, error) {
	tag, err := store.db.Exec(ctx, sqlUpdateRegistrationResult, registrationID, string(status), placement, int64(earnings))
	if err != nil {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return arena.Registration{}, wrapStoreError(errorSubjectRegistration, errorCodeUpdate, arena.ErrRegistrationNotFound)
	}
	return store.GetRegistration(ctx, registrationID)
}

func (store *Store) CreateTransaction(ctx context.Context, transaction arena.Transaction) (arena.Transaction, error) {
	err := store.db.QueryRow(ctx, sqlInsertTransaction,
		transaction.UserID,
		int64(transaction.AmountCents),
		string(transaction.Type),
		transaction.Description,
		transaction.TournamentID,
		transaction.Reference,
		transaction.Timestamp,
		string(transaction.Status),
		transaction.MetadataJSON,
	).Scan(&transaction.ID)
	if err != nil {
		return arena.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInsert, err)
	}
	return transaction, nil
}

func (store *Store) ListTransactionsByUser(ctx context.Context, userID uint64) ([]arena.Transaction, error) {
	rows, err := store.db.Query(ctx, sqlListTransactionsByUser, userID)
	if err != nil {
		return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	defer rows.Close()
	transactions := make([]arena.Transaction, 0, 32)
	for rows.Next() {
		var (
			transaction arena.Transaction
			amount      int64
		)
		if err := rows.Scan(
			&transaction.ID,
			&transaction.UserID,
			&amount,
			&transaction.Type,
			&transaction.Description,
			&transaction.TournamentID,
			&transaction.Reference,
			&transaction.Timestamp,
			&transaction.Status,
			&transaction.MetadataJSON,
		); err != nil {
			return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
		}
		transaction.AmountCents = arena.AmountCents(amount)
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	return transactions, nil
}

func (store *Store) SumTransactionsByUser(ctx context.Context, userID uint64) (arena.AmountCents, error) {
	var sum int64
	if err := store.db.QueryRow(ctx, sqlSumTransactionsByUser, userID).Scan(&sum); err != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeSum, err)
	}
	return arena.AmountCents(sum), nil
}

func scanUser(row pgx.Row) (arena.User, error) {
	var (
		user    arena.User
		balance int64
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.MobileNo,
		&balance,
		&user.CreatedAt,
	)
	if err != nil {
		return arena.User{}, err
	}
	user.BalanceCents = arena.AmountCents(balance)
	return user, nil
}

func scanTournament(row pgx.Row) (arena.Tournament, error) {
	var (
		tournament arena.Tournament
		prizePool  int64
		entryFee   int64
	)
	err := row.Scan(
		&tournament.ID,
		&tournament.Title,
		&tournament.GameID,
		&tournament.Description,
		&tournament.StartTime,
		&tournament.EndTime,
		&prizePool,
		&entryFee,
		&tournament.MaxPlayers,
		&tournament.CurrentPlayers,
		&tournament.Status,
		&tournament.TournamentType,
		&tournament.Featured,
		&tournament.ImageURL,
	)
	if err != nil {
		return arena.Tournament{}, err
	}
	tournament.PrizePoolCents = arena.AmountCents(prizePool)
	tournament.EntryFeeCents = arena.AmountCents(entryFee)
	return tournament, nil
}

func scanRegistration(row pgx.Row) (arena.Registration, error) {
	var (
		registration arena.Registration
		earnings     int64
	)
	err := row.Scan(
		&registration.ID,
		&registration.UserID,
		&registration.TournamentID,
		&registration.RegisteredAt,
		&registration.Status,
		&registration.Placement,
		&earnings,
	)
	if err != nil {
		return arena.Registration{}, err
	}
	registration.EarningsCents = arena.AmountCents(earnings)
	return registration, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return arena.WrapError(errorOperationStore, subject, code, err)
}

func translateUserConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolationCode {
		return nil
	}
	switch pgErr.ConstraintName {
	case constraintUsersUsername:
		return arena.ErrUsernameTaken
	case constraintUsersEmail:
		return arena.ErrEmailTaken
	}
	return nil
}

func isRegistrationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintRegistrationsUserTourn
	}
	return false
}
