package lobby_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pano-service/internal/model"
	lobbysvc "pano-service/internal/service/lobby"
	appErr "pano-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *lobbysvc.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Table{}); err != nil {
		t.Fatalf("failed to migrate table model: %v", err)
	}

	return db, lobbysvc.NewService(db)
}

func TestEnsureFixedTablesCreatesAllTiers(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	if err := svc.EnsureFixedTables(ctx); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	var count int64
	if err := db.Model(&model.Table{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 fixed tables, got %d", count)
	}

	var bronze model.Table
	if err := db.Where("name = ?", "Bronze").First(&bronze).Error; err != nil {
		t.Fatalf("expected Bronze table: %v", err)
	}
	if bronze.SmallBlind != 1 || bronze.BigBlind != 2 || bronze.MinBuyIn != 30 {
		t.Fatalf("unexpected Bronze stakes: %+v", bronze)
	}
	if bronze.MaxBuyIn != bronze.BigBlind*100 {
		t.Fatalf("max buy-in should be 100 big blinds, got %d", bronze.MaxBuyIn)
	}
	if bronze.SeatLimit != 6 || bronze.Status != "open" {
		t.Fatalf("unexpected Bronze setup: %+v", bronze)
	}

	// Running bootstrap again should be idempotent.
	if err := svc.EnsureFixedTables(ctx); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	if err := db.Model(&model.Table{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected idempotent bootstrap, got %d tables", count)
	}
}

func TestListTablesOrdersByStakesAndCountsSeats(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	if err := svc.EnsureFixedTables(ctx); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	players := datatypes.JSON(`{"0":{"userId":1,"alias":"alice","stack":200},"2":{"userId":2,"alias":"bob","stack":180}}`)
	if err := db.Model(&model.Table{}).Where("name = ?", "Prata").
		Update("players_json", players).Error; err != nil {
		t.Fatalf("failed to seed players: %v", err)
	}

	summaries, err := svc.ListTables(ctx)
	if err != nil {
		t.Fatalf("list tables failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	if summaries[0].Name != "Bronze" || summaries[1].Name != "Prata" || summaries[2].Name != "Ouro" {
		t.Fatalf("expected tables ordered by blinds, got %s/%s/%s",
			summaries[0].Name, summaries[1].Name, summaries[2].Name)
	}
	if summaries[1].Seated != 2 {
		t.Fatalf("expected 2 seated at Prata, got %d", summaries[1].Seated)
	}
	if summaries[0].Seated != 0 {
		t.Fatalf("expected empty Bronze, got %d seated", summaries[0].Seated)
	}
}

func TestListTablesSkipsClosed(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	if err := svc.EnsureFixedTables(ctx); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if err := db.Model(&model.Table{}).Where("name = ?", "Ouro").
		Update("status", "closed").Error; err != nil {
		t.Fatalf("failed to close table: %v", err)
	}

	summaries, err := svc.ListTables(ctx)
	if err != nil {
		t.Fatalf("list tables failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected closed table to be hidden, got %d summaries", len(summaries))
	}
}

func TestGetTableNotFound(t *testing.T) {
	_, svc := newTestService(t)

	if _, err := svc.GetTable(context.Background(), 9999); !errors.Is(err, appErr.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}
