package arena

import (
	"fmt"
	"strings"
	"time"
)

// AmountCents is an integer currency amount in cents. Balance-affecting
// amounts are signed: credits positive, debits negative.
type AmountCents int64

// TournamentStatus defines the tournament lifecycle.
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentLive      TournamentStatus = "live"
	TournamentCompleted TournamentStatus = "completed"
)

// RegistrationStatus defines a player's progress inside a tournament.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationPlaying    RegistrationStatus = "playing"
	RegistrationCompleted  RegistrationStatus = "completed"
)

// TransactionType enumerates ledger transaction kinds.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionEntryFee   TransactionType = "entry_fee"
	TransactionPrize      TransactionType = "prize"
)

// TransactionStatus defines the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionPending         TransactionStatus = "pending"
	TransactionCompletedStatus TransactionStatus = "completed"
	TransactionFailed          TransactionStatus = "failed"
)

// User is a wallet-holding account. Balance is mutated only through the
// ledger operations on Service.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	MobileNo     string
	BalanceCents AmountCents
	CreatedAt    time.Time
}

// Game is static reference data created at seed time.
type Game struct {
	ID       uint64
	Name     string
	ImageURL string
}

// Tournament is a competitive event players register into.
type Tournament struct {
	ID             uint64
	Title          string
	GameID         uint64
	Description    string
	StartTime      time.Time
	EndTime        *time.Time
	PrizePoolCents AmountCents
	EntryFeeCents  AmountCents
	MaxPlayers     int
	CurrentPlayers int
	Status         TournamentStatus
	TournamentType string
	Featured       bool
	ImageURL       string
}

// Registration is a user's claim to a seat in a tournament. At most one
// exists per (user, tournament) pair.
type Registration struct {
	ID            uint64
	UserID        uint64
	TournamentID  uint64
	RegisteredAt  time.Time
	Status        RegistrationStatus
	Placement     *int
	EarningsCents AmountCents
}

// Transaction is one immutable line in the append-only ledger.
type Transaction struct {
	ID           uint64
	UserID       uint64
	AmountCents  AmountCents
	Type         TransactionType
	Description  string
	TournamentID *uint64
	Reference    string
	Timestamp    time.Time
	Status       TransactionStatus
	MetadataJSON string
}

// UserTournament pairs a registration with its tournament detail.
type UserTournament struct {
	Registration Registration
	Tournament   Tournament
}

// TournamentScope selects a predefined tournament listing.
type TournamentScope string

const (
	ScopeAll       TournamentScope = "all"
	ScopeFeatured  TournamentScope = "featured"
	ScopeUpcoming  TournamentScope = "upcoming"
	ScopeLive      TournamentScope = "live"
	ScopeCompleted TournamentScope = "completed"
	ScopeFree      TournamentScope = "free"
)

// TournamentFilter narrows a tournament listing. A non-zero GameID takes
// precedence over Scope.
type TournamentFilter struct {
	GameID uint64
	Scope  TournamentScope
}

// ParseTournamentScope validates a raw scope value (empty means all).
func ParseTournamentScope(raw string) (TournamentScope, error) {
	normalized := TournamentScope(strings.TrimSpace(strings.ToLower(raw)))
	switch normalized {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeFeatured, ScopeUpcoming, ScopeLive, ScopeCompleted, ScopeFree:
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTournamentScope, raw)
}

// ParseTournamentStatus validates a raw tournament status value.
func ParseTournamentStatus(raw string) (TournamentStatus, error) {
	normalized := TournamentStatus(strings.TrimSpace(strings.ToLower(raw)))
	switch normalized {
	case TournamentUpcoming, TournamentLive, TournamentCompleted:
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTournamentStatus, raw)
}

// validateTransactionAmount enforces the sign/type pairing of the ledger:
// deposits and prizes credit, withdrawals and entry fees debit.
func validateTransactionAmount(transactionType TransactionType, amount AmountCents) error {
	switch transactionType {
	case TransactionDeposit, TransactionPrize:
		if amount <= 0 {
			return fmt.Errorf("%w: %s amount must be positive", ErrInvalidAmount, transactionType)
		}
	case TransactionWithdrawal, TransactionEntryFee:
		if amount >= 0 {
			return fmt.Errorf("%w: %s amount must be negative", ErrInvalidAmount, transactionType)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTransactionType, transactionType)
	}
	return nil
}
