package wallet

import (
	"context"
	"errors"
	"time"

	"pano-service/internal/model"
	appErr "pano-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetWallet(ctx context.Context, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (s *Service) Deposit(ctx context.Context, userID, amount int64) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, appErr.ErrInvalidAmount
	}
	return s.applyDelta(ctx, userID, amount, "deposit")
}

func (s *Service) Withdraw(ctx context.Context, userID, amount int64) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, appErr.ErrInvalidAmount
	}
	return s.applyDelta(ctx, userID, -amount, "withdraw")
}

func (s *Service) applyDelta(ctx context.Context, userID, delta int64, txnType string) (*model.Wallet, error) {
	now := time.Now()
	var out model.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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

		if wallet.BalanceAvailable+delta < 0 {
			return appErr.ErrInsufficientFunds
		}
		wallet.BalanceAvailable += delta
		if delta > 0 {
			wallet.TotalDeposit += delta
		} else {
			wallet.TotalWithdraw += -delta
		}
		wallet.UpdatedAt = now
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}

		if err := tx.Create(&model.Transaction{
			UserID:       userID,
			Type:         txnType,
			Delta:        delta,
			BalanceAfter: wallet.BalanceAvailable,
			MetaJSON:     datatypes.JSON("{}"),
			CreatedAt:    now,
		}).Error; err != nil {
			return err
		}

		out = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type HistoryResult struct {
	Items []model.Transaction `json:"items"`
	Total int64               `json:"total"`
}

func (s *Service) History(ctx context.Context, userID int64, page, size int) (*HistoryResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]model.Transaction, 0, size)
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("id DESC").
			Limit(size).
			Offset(offset).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &HistoryResult{Items: items, Total: total}, nil
}
