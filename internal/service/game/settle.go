package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pano-service/internal/model"
	"pano-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const settleTimeout = 10 * time.Second

// handleSettle runs after every hand, off the runtime's lock: it records
// the hand and per-seat outcomes, cashes out seats that left mid-hand,
// refreshes the table snapshot and announces the result on redis.
func (s *Service) handleSettle(tableID int64, result *HandResult, snaps []SeatSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	now := time.Now()
	handUID := uuid.NewString()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hand := model.Hand{
			HandUID:    handUID,
			TableID:    tableID,
			PotTotal:   result.PotTotal,
			ResultJSON: mustJSON(result),
			CreatedAt:  now,
			EndedAt:    &now,
		}
		if err := tx.Create(&hand).Error; err != nil {
			return err
		}

		logs := make([]model.HandLog, 0, len(snaps))
		for _, snap := range snaps {
			if snap.UserID == 0 {
				continue
			}
			if snap.Delta == 0 && !snap.Left {
				continue
			}
			logs = append(logs, model.HandLog{
				HandID:     hand.ID,
				TableID:    tableID,
				UserID:     snap.UserID,
				SeatIndex:  snap.SeatIndex,
				Delta:      snap.Delta,
				StackAfter: snap.Stack,
				CreatedAt:  now,
			})
		}
		if len(logs) > 0 {
			if err := tx.Create(&logs).Error; err != nil {
				return err
			}
		}

		// Seats that left during the hand take their stack back to the
		// wallet now.
		for _, snap := range snaps {
			if !snap.Left || snap.Stack <= 0 {
				continue
			}
			if err := cashOutLocked(tx, snap.UserID, tableID, snap.Stack, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("hand settlement persist failed",
			zap.Int64("tableID", tableID),
			zap.Int64("handNo", result.HandNo),
			zap.Error(err),
		)
		return
	}

	// Snapshot after deferred leaves were applied.
	if rt, ok := s.runtimes.Load(tableID); ok {
		s.persistSnapshot(ctx, tableID, rt.(*TableRuntime).PlayersSnapshot())
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"handUid": handUID,
		"tableId": tableID,
		"result":  result,
	})
	if err := s.rdb.Publish(ctx, handChannel(tableID), payload).Err(); err != nil {
		logger.Log.Warn("hand result publish failed", zap.Int64("tableID", tableID), zap.Error(err))
	}
}

func handChannel(tableID int64) string {
	return fmt.Sprintf("table:%d:hands", tableID)
}

// cashOutLocked credits a leaver's remaining stack inside an open
// settlement transaction.
func cashOutLocked(tx *gorm.DB, userID, tableID, amount int64, now time.Time) error {
	var wallet model.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		wallet = model.Wallet{UserID: userID}
	}

	wallet.BalanceAvailable += amount
	wallet.TotalCashOut += amount
	wallet.UpdatedAt = now
	if err := tx.Save(&wallet).Error; err != nil {
		return err
	}

	return tx.Create(&model.Transaction{
		UserID:       userID,
		Type:         "cash_out",
		Delta:        amount,
		BalanceAfter: wallet.BalanceAvailable,
		TableID:      &tableID,
		MetaJSON:     mustJSON(map[string]interface{}{"tableId": tableID, "reason": "left_mid_hand"}),
		CreatedAt:    now,
	}).Error
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
