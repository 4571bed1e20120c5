package model

import (
	"time"

	"gorm.io/datatypes"
)

// All chip/money amounts are integer cents.

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	InviteCode   string `gorm:"unique"`
	Status       string `gorm:"default:normal;not null"` // normal/banned
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Wallet struct {
	UserID           int64 `gorm:"primaryKey"`
	BalanceAvailable int64
	TotalDeposit     int64
	TotalWithdraw    int64
	TotalBuyIn       int64
	TotalCashOut     int64
	UpdatedAt        time.Time
}

type Transaction struct {
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	UserID       int64
	Type         string // deposit/withdraw/buy_in/cash_out
	Delta        int64
	BalanceAfter int64
	TableID      *int64
	MetaJSON     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

type Table struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"not null"`
	Status     string `gorm:"default:open"` // open/in_hand/closed
	GameType   string `gorm:"default:texas_holdem"`
	SeatLimit  int    `gorm:"default:6"`
	MinBuyIn   int64
	MaxBuyIn   int64
	SmallBlind int64
	BigBlind   int64
	// seat index -> {userId, stack, folded} snapshot for lobby/recovery views
	PlayersJSON datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Hand struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	HandUID    string `gorm:"unique;not null"`
	TableID    int64
	PotTotal   int64
	ResultJSON datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time
	EndedAt    *time.Time
}

// HandLog records one seat's net outcome for one hand.
type HandLog struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	HandID     int64
	TableID    int64
	UserID     int64
	SeatIndex  int
	Delta      int64
	StackAfter int64
	CreatedAt  time.Time
}
