package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"pano-service/internal/model"
	appErr "pano-service/pkg/errors"
	"pano-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const joinLockTTL = 10 * time.Second

type Service struct {
	db  *gorm.DB
	rdb *redis.Client

	turnSeconds int
	runtimes    sync.Map // tableID -> *TableRuntime
	mu          sync.Mutex
}

func NewService(db *gorm.DB, rdb *redis.Client, turnSeconds int) *Service {
	return &Service{
		db:          db,
		rdb:         rdb,
		turnSeconds: turnSeconds,
	}
}

// GetRuntime returns the live runtime for a table, creating it from the
// persisted row on first access. Seats stored in the players snapshot are
// restored with their stacks; the chips never left the table.
func (s *Service) GetRuntime(ctx context.Context, tableID int64) (*TableRuntime, error) {
	if v, ok := s.runtimes.Load(tableID); ok {
		return v.(*TableRuntime), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.runtimes.Load(tableID); ok {
		return v.(*TableRuntime), nil
	}

	var table model.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrTableNotFound
		}
		return nil, err
	}
	if table.Status == "closed" {
		return nil, appErr.ErrTableNotFound
	}

	rt, err := newTableRuntime(table.ID, TableConfig{
		SmallBlind: table.SmallBlind,
		BigBlind:   table.BigBlind,
		MaxSeats:   table.SeatLimit,
	}, s.turnSeconds, s.handleSettle)
	if err != nil {
		return nil, err
	}

	for _, snap := range parsePlayersJSON(table.PlayersJSON) {
		if _, err := rt.Join(snap.UserID, snap.Alias, snap.Stack); err != nil {
			logger.Log.Warn("seat restore failed",
				zap.Int64("tableID", table.ID),
				zap.Int64("userID", snap.UserID),
				zap.Error(err),
			)
		}
	}

	s.runtimes.Store(tableID, rt)
	return rt, nil
}

func parsePlayersJSON(raw datatypes.JSON) []SeatSnapshot {
	if len(raw) == 0 {
		return nil
	}
	var payload map[string]struct {
		UserID int64  `json:"userId"`
		Alias  string `json:"alias"`
		Stack  int64  `json:"stack"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	snaps := make([]SeatSnapshot, 0, len(payload))
	for seatStr, data := range payload {
		seatIdx, err := strconv.Atoi(seatStr)
		if err != nil || data.UserID == 0 || data.Stack <= 0 {
			continue
		}
		snaps = append(snaps, SeatSnapshot{SeatIndex: seatIdx, UserID: data.UserID, Alias: data.Alias, Stack: data.Stack})
	}
	// restore in original seat order
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].SeatIndex < snaps[j].SeatIndex })
	return snaps
}

// JoinTable debits the buy-in from the user's wallet and seats them.
func (s *Service) JoinTable(ctx context.Context, userID, tableID, buyIn int64) (int, error) {
	var table model.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, appErr.ErrTableNotFound
		}
		return 0, err
	}
	if table.Status == "closed" {
		return 0, appErr.ErrTableNotFound
	}
	if buyIn < table.MinBuyIn || (table.MaxBuyIn > 0 && buyIn > table.MaxBuyIn) {
		return 0, appErr.ErrInvalidBuyIn
	}

	// One join in flight per user.
	lockKey := fmt.Sprintf("table:join:lock:%d", userID)
	gotLock, err := s.rdb.SetNX(ctx, lockKey, tableID, joinLockTTL).Result()
	if err != nil {
		return 0, err
	}
	if !gotLock {
		return 0, appErr.ErrAlreadySeated
	}
	defer s.rdb.Del(ctx, lockKey)

	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return 0, err
	}
	if rt.HasSeat(userID) {
		return 0, appErr.ErrAlreadySeated
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, appErr.ErrUserNotFound
		}
		return 0, err
	}

	if err := s.debitBuyIn(ctx, userID, tableID, buyIn); err != nil {
		return 0, err
	}

	seatIdx, err := rt.Join(userID, user.Username, buyIn)
	if err != nil {
		// seat rejected after the debit committed; give the chips back
		if refundErr := s.creditStack(context.Background(), userID, tableID, buyIn, "buy_in_refund"); refundErr != nil {
			logger.Log.Error("buy-in refund failed",
				zap.Int64("userID", userID),
				zap.Int64("tableID", tableID),
				zap.Error(refundErr),
			)
		}
		if errors.Is(err, ErrNoFreeSeat) {
			return 0, appErr.ErrTableFull
		}
		return 0, err
	}

	s.persistSnapshot(ctx, tableID, rt.PlayersSnapshot())
	return seatIdx, nil
}

// LeaveTable removes the user's seat and returns the stack to their
// wallet. Mid-hand the seat folds and the cash-out happens at settlement;
// pending is true in that case.
func (s *Service) LeaveTable(ctx context.Context, userID, tableID int64) (stack int64, pending bool, err error) {
	rt, err := s.GetRuntime(ctx, tableID)
	if err != nil {
		return 0, false, err
	}

	stack, now, err := rt.Leave(userID)
	if err != nil {
		if errors.Is(err, ErrSeatNotFound) {
			return 0, false, appErr.ErrNotSeated
		}
		return 0, false, err
	}
	if !now {
		return 0, true, nil
	}

	if stack > 0 {
		if err := s.creditStack(ctx, userID, tableID, stack, "cash_out"); err != nil {
			return 0, false, err
		}
	}
	s.persistSnapshot(ctx, tableID, rt.PlayersSnapshot())
	return stack, false, nil
}

func (s *Service) debitBuyIn(ctx context.Context, userID, tableID, amount int64) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet model.Wallet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&wallet).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appErr.ErrInsufficientFunds
			}
			return err
		}
		if wallet.BalanceAvailable < amount {
			return appErr.ErrInsufficientFunds
		}

		wallet.BalanceAvailable -= amount
		wallet.TotalBuyIn += amount
		wallet.UpdatedAt = now
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}

		return tx.Create(&model.Transaction{
			UserID:       userID,
			Type:         "buy_in",
			Delta:        -amount,
			BalanceAfter: wallet.BalanceAvailable,
			TableID:      &tableID,
			MetaJSON:     mustJSON(map[string]interface{}{"tableId": tableID}),
			CreatedAt:    now,
		}).Error
	})
}

func (s *Service) creditStack(ctx context.Context, userID, tableID, amount int64, txnType string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet model.Wallet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&wallet).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				wallet = model.Wallet{UserID: userID}
			} else {
				return err
			}
		}

		wallet.BalanceAvailable += amount
		wallet.TotalCashOut += amount
		wallet.UpdatedAt = now
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}

		return tx.Create(&model.Transaction{
			UserID:       userID,
			Type:         txnType,
			Delta:        amount,
			BalanceAfter: wallet.BalanceAvailable,
			TableID:      &tableID,
			MetaJSON:     mustJSON(map[string]interface{}{"tableId": tableID}),
			CreatedAt:    now,
		}).Error
	})
}

func (s *Service) persistSnapshot(ctx context.Context, tableID int64, snaps []SeatSnapshot) {
	payload := make(map[string]interface{}, len(snaps))
	for _, snap := range snaps {
		payload[strconv.Itoa(snap.SeatIndex)] = map[string]interface{}{
			"userId": snap.UserID,
			"alias":  snap.Alias,
			"stack":  snap.Stack,
		}
	}
	if err := s.db.WithContext(ctx).Model(&model.Table{}).
		Where("id = ?", tableID).
		Update("players_json", mustJSON(payload)).Error; err != nil {
		logger.Log.Error("players snapshot persist failed", zap.Int64("tableID", tableID), zap.Error(err))
	}
}
