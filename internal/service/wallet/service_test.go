package wallet_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pano-service/internal/model"
	walletsvc "pano-service/internal/service/wallet"
	appErr "pano-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *walletsvc.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Wallet{}, &model.Transaction{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db, walletsvc.NewService(db)
}

func TestGetWalletReturnsEmptyForUnknownUser(t *testing.T) {
	_, svc := newTestService(t)

	wallet, err := svc.GetWallet(context.Background(), 42)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if wallet.UserID != 42 || wallet.BalanceAvailable != 0 {
		t.Fatalf("expected empty wallet, got %+v", wallet)
	}
}

func TestDepositCreatesWalletAndTransaction(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	wallet, err := svc.Deposit(ctx, 7, 1500)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if wallet.BalanceAvailable != 1500 || wallet.TotalDeposit != 1500 {
		t.Fatalf("unexpected wallet after deposit: %+v", wallet)
	}

	var txn model.Transaction
	if err := db.Where("user_id = ?", int64(7)).First(&txn).Error; err != nil {
		t.Fatalf("expected transaction row: %v", err)
	}
	if txn.Type != "deposit" || txn.Delta != 1500 || txn.BalanceAfter != 1500 {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
}

func TestWithdrawDebitsBalance(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, 7, 1000); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	wallet, err := svc.Withdraw(ctx, 7, 400)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if wallet.BalanceAvailable != 600 || wallet.TotalWithdraw != 400 {
		t.Fatalf("unexpected wallet after withdraw: %+v", wallet)
	}
}

func TestWithdrawRejectsOverdraft(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, 7, 100); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := svc.Withdraw(ctx, 7, 101); !errors.Is(err, appErr.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	wallet, err := svc.GetWallet(ctx, 7)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if wallet.BalanceAvailable != 100 {
		t.Fatalf("failed withdraw must not change the balance, got %d", wallet.BalanceAvailable)
	}
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, 7, 0); !errors.Is(err, appErr.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero deposit, got %v", err)
	}
	if _, err := svc.Withdraw(ctx, 7, -5); !errors.Is(err, appErr.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative withdraw, got %v", err)
	}
}

func TestHistoryPaginatesNewestFirst(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := svc.Deposit(ctx, 7, int64(i*100)); err != nil {
			t.Fatalf("deposit %d failed: %v", i, err)
		}
	}
	// another user's rows must not bleed in
	if _, err := svc.Deposit(ctx, 8, 999); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	first, err := svc.History(ctx, 7, 1, 2)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if first.Total != 5 || len(first.Items) != 2 {
		t.Fatalf("unexpected first page: total=%d items=%d", first.Total, len(first.Items))
	}
	if first.Items[0].Delta != 500 || first.Items[1].Delta != 400 {
		t.Fatalf("expected newest first, got %d then %d", first.Items[0].Delta, first.Items[1].Delta)
	}

	last, err := svc.History(ctx, 7, 3, 2)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(last.Items) != 1 || last.Items[0].Delta != 100 {
		t.Fatalf("unexpected last page: %+v", last.Items)
	}
}
