package lobby

import (
	"context"
	"encoding/json"
	"errors"

	"pano-service/internal/model"
	appErr "pano-service/pkg/errors"
	"pano-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type fixedTable struct {
	Name       string
	MinBuyIn   int64
	SmallBlind int64
	BigBlind   int64
}

// The three house tiers. Amounts in cents; max buy-in is 100 big blinds.
var fixedTables = []fixedTable{
	{Name: "Bronze", MinBuyIn: 30, SmallBlind: 1, BigBlind: 2},
	{Name: "Prata", MinBuyIn: 200, SmallBlind: 5, BigBlind: 10},
	{Name: "Ouro", MinBuyIn: 1000, SmallBlind: 25, BigBlind: 50},
}

// EnsureFixedTables creates the house tables missing from the database.
// Runs once at startup; existing rows are left alone.
func (s *Service) EnsureFixedTables(ctx context.Context) error {
	for _, ft := range fixedTables {
		var existing model.Table
		err := s.db.WithContext(ctx).Where("name = ?", ft.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		table := model.Table{
			Name:       ft.Name,
			Status:     "open",
			GameType:   "texas_holdem",
			SeatLimit:  6,
			MinBuyIn:   ft.MinBuyIn,
			MaxBuyIn:   ft.BigBlind * 100,
			SmallBlind: ft.SmallBlind,
			BigBlind:   ft.BigBlind,
		}
		if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
			return err
		}
		logger.Log.Info("fixed table created",
			zap.String("name", ft.Name),
			zap.Int64("smallBlind", ft.SmallBlind),
			zap.Int64("bigBlind", ft.BigBlind),
		)
	}
	return nil
}

type TableSummary struct {
	ID         int64  `json:"id,string"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	GameType   string `json:"gameType"`
	SeatLimit  int    `json:"seatLimit"`
	Seated     int    `json:"seated"`
	MinBuyIn   int64  `json:"minBuyIn"`
	MaxBuyIn   int64  `json:"maxBuyIn"`
	SmallBlind int64  `json:"smallBlind"`
	BigBlind   int64  `json:"bigBlind"`
}

// ListTables returns every open table with its current occupancy.
func (s *Service) ListTables(ctx context.Context) ([]TableSummary, error) {
	var tables []model.Table
	if err := s.db.WithContext(ctx).
		Where("status <> ?", "closed").
		Order("small_blind ASC").
		Find(&tables).Error; err != nil {
		return nil, err
	}

	out := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		out = append(out, TableSummary{
			ID:         t.ID,
			Name:       t.Name,
			Status:     t.Status,
			GameType:   t.GameType,
			SeatLimit:  t.SeatLimit,
			Seated:     countSeated(t.PlayersJSON),
			MinBuyIn:   t.MinBuyIn,
			MaxBuyIn:   t.MaxBuyIn,
			SmallBlind: t.SmallBlind,
			BigBlind:   t.BigBlind,
		})
	}
	return out, nil
}

func (s *Service) GetTable(ctx context.Context, id int64) (*model.Table, error) {
	var table model.Table
	if err := s.db.WithContext(ctx).First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrTableNotFound
		}
		return nil, err
	}
	return &table, nil
}

func countSeated(raw datatypes.JSON) int {
	if len(raw) == 0 {
		return 0
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0
	}
	return len(payload)
}
