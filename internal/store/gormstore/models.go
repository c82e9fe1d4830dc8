package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// User mirrors the users table.
type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Username     string    `gorm:"not null;uniqueIndex:uniq_users_username"`
	Email        string    `gorm:"not null;uniqueIndex:uniq_users_email"`
	PasswordHash string    `gorm:"not null"`
	MobileNo     string    `gorm:""`
	BalanceCents int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// Game mirrors the games table.
type Game struct {
	ID       uint64 `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	ImageURL string `gorm:"not null"`
}

func (Game) TableName() string { return "games" }

// Tournament mirrors the tournaments table.
type Tournament struct {
	ID             uint64     `gorm:"primaryKey"`
	Title          string     `gorm:"not null"`
	GameID         uint64     `gorm:"not null;index:idx_tournaments_game"`
	Description    string     `gorm:""`
	StartTime      time.Time  `gorm:"not null"`
	EndTime        *time.Time `gorm:""`
	PrizePoolCents int64      `gorm:"not null"`
	EntryFeeCents  int64      `gorm:"not null;default:0"`
	MaxPlayers     int        `gorm:"not null"`
	CurrentPlayers int        `gorm:"not null;default:0"`
	Status         string     `gorm:"not null;default:'upcoming';index:idx_tournaments_status"`
	TournamentType string     `gorm:"not null"`
	Featured       bool       `gorm:"not null;default:false"`
	ImageURL       string     `gorm:""`
}

func (Tournament) TableName() string { return "tournaments" }

// Registration mirrors the registrations table. The composite unique index
// is the backstop for the exactly-once registration invariant.
type Registration struct {
	ID            uint64    `gorm:"primaryKey"`
	UserID        uint64    `gorm:"not null;uniqueIndex:uniq_registrations_user_tournament,priority:1"`
	TournamentID  uint64    `gorm:"not null;uniqueIndex:uniq_registrations_user_tournament,priority:2;index:idx_registrations_tournament"`
	RegisteredAt  time.Time `gorm:"not null"`
	Status        string    `gorm:"not null;default:'registered'"`
	Placement     *int      `gorm:""`
	EarningsCents int64     `gorm:"not null;default:0"`
}

func (Registration) TableName() string { return "registrations" }

// Transaction mirrors the transactions table (append-only).
type Transaction struct {
	ID           uint64         `gorm:"primaryKey"`
	UserID       uint64         `gorm:"not null;index:idx_transactions_user_timestamp,priority:1"`
	AmountCents  int64          `gorm:"not null"`
	Type         string         `gorm:"not null"`
	Description  string         `gorm:"not null"`
	TournamentID *uint64        `gorm:""`
	Reference    string         `gorm:"not null;uniqueIndex:uniq_transactions_reference"`
	Timestamp    time.Time      `gorm:"not null;index:idx_transactions_user_timestamp,priority:2"`
	Status       string         `gorm:"not null;default:'completed'"`
	Metadata     datatypes.JSON `gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }
