// Package seed loads starting player records from a YAML fixture.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Fixture is the seed file layout
type Fixture struct {
	Players []PlayerFixture `yaml:"players"`
}

// PlayerFixture describes one starting record
type PlayerFixture struct {
	ID              string           `yaml:"id"`
	Name            string           `yaml:"name"`
	Password        string           `yaml:"password"`
	Health          *int64           `yaml:"health"`
	Level           *int64           `yaml:"level"`
	Experience      *int64           `yaml:"experience"`
	Energy          *int64           `yaml:"energy"`
	Mana            *int64           `yaml:"mana"`
	Gold            int64            `yaml:"gold"`
	MonetaryBalance string           `yaml:"monetary_balance"`
	Inventory       map[string]int64 `yaml:"inventory"`
}

// Load reads a fixture file
func Load(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return &f, nil
}

// Seeder writes fixture players that do not exist yet
type Seeder struct {
	storage    storage.Storage
	bcryptCost int
	logger     *slog.Logger
}

// New creates a Seeder. A cost of zero uses bcrypt.DefaultCost.
func New(storage storage.Storage, bcryptCost int, logger *slog.Logger) *Seeder {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{
		storage:    storage,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Apply creates every fixture player missing from storage and returns how many were created.
// Existing records are left untouched.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (int, error) {
	created := 0
	for _, pf := range f.Players {
		rec, err := s.record(pf)
		if err != nil {
			return created, err
		}

		exists, err := s.storage.PlayerExists(ctx, rec.ID)
		if err != nil {
			return created, err
		}
		if exists {
			s.logger.Debug("seed player already present", slog.String("player_id", string(rec.ID)))
			continue
		}

		if err := s.storage.SavePlayer(ctx, rec); err != nil {
			return created, fmt.Errorf("seeding %s: %w", rec.ID, err)
		}
		created++
	}

	s.logger.Info("seed applied",
		slog.Int("players", len(f.Players)),
		slog.Int("created", created),
	)
	return created, nil
}

func (s *Seeder) record(pf PlayerFixture) (*model.PlayerRecord, error) {
	if pf.ID == "" {
		return nil, fmt.Errorf("%w: seed player without id", model.ErrValidation)
	}
	rec := &model.PlayerRecord{
		ID:         model.PlayerID(pf.ID),
		Name:       pf.Name,
		Health:     pf.Health,
		Level:      pf.Level,
		Experience: pf.Experience,
		Energy:     pf.Energy,
		Mana:       pf.Mana,
		Gold:       pf.Gold,
		Inventory:  pf.Inventory,
	}
	if pf.MonetaryBalance != "" {
		balance, err := decimal.NewFromString(pf.MonetaryBalance)
		if err != nil {
			return nil, fmt.Errorf("%w: seed player %s balance: %v", model.ErrValidation, pf.ID, err)
		}
		rec.MonetaryBalance = balance.Round(2)
	}
	if pf.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pf.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", pf.ID, err)
		}
		rec.PasswordHash = string(hash)
	}
	return rec, rec.Validate()
}
