package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.CooldownRetention = time.Hour
	cfg.PaymentLedgerTTL = 2 * time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) savePlayer() {
	err := s.storage.SavePlayer(s.ctx, &model.PlayerRecord{
		ID:              "player-1",
		Name:            "Ayla",
		Gold:            75,
		MonetaryBalance: decimal.RequireFromString("4.50"),
		Inventory:       map[string]int64{"potion": 2},
	})
	s.Require().NoError(err)
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	s.savePlayer()

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Ayla", retrieved.Name)
	s.Equal(int64(75), retrieved.Gold)
	s.Equal("4.50", retrieved.MonetaryBalance.StringFixed(2))
	s.Equal(int64(2), retrieved.ItemCount("potion"))
	s.Equal(int64(1), retrieved.Version)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestUnknownFieldsSurvivePatch() {
	s.mini.Set(playerKey("player-2"), `{"id":"player-2","name":"Bo","gold":5,"guild":"Owls","version":4}`)

	gold := int64(9)
	updated, err := s.storage.PatchPlayer(s.ctx, "player-2", model.PlayerPatch{Gold: &gold})
	s.Require().NoError(err)
	s.Equal(int64(5), updated.Version)

	raw, err := s.mini.Get(playerKey("player-2"))
	s.Require().NoError(err)
	s.Contains(raw, `"guild":"Owls"`)
	s.Contains(raw, `"gold":9`)
}

func (s *StorageSuite) TestPatchPlayerStaleVersion() {
	s.savePlayer()

	gold := int64(1)
	_, err := s.storage.PatchPlayer(s.ctx, "player-1", model.PlayerPatch{Gold: &gold, ExpectedVersion: 7})
	s.ErrorIs(err, model.ErrConflict)
}

func (s *StorageSuite) TestPatchPlayerNotFound() {
	gold := int64(1)
	_, err := s.storage.PatchPlayer(s.ctx, "ghost", model.PlayerPatch{Gold: &gold})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestMutatorAgainstRedis() {
	s.savePlayer()
	m := storage.NewMutator(s.storage)

	updated, err := m.Mutate(s.ctx, "player-1", func(current *model.PlayerRecord) (model.PlayerPatch, error) {
		gold := current.Gold - 25
		return model.PlayerPatch{Gold: &gold}, nil
	})
	s.Require().NoError(err)
	s.Equal(int64(50), updated.Gold)
	s.Equal(int64(2), updated.Version)
}

func (s *StorageSuite) TestMutatorDetectsRaceOnVersionlessRecord() {
	s.mini.Set(playerKey("p1"), `{"id":"p1","name":"Ayla","gold":100}`)
	m := storage.NewMutator(s.storage)

	calls := 0
	updated, err := m.Mutate(s.ctx, "p1", func(current *model.PlayerRecord) (model.PlayerPatch, error) {
		calls++
		if calls == 1 {
			racer := int64(50)
			_, err := s.storage.PatchPlayer(s.ctx, "p1", model.PlayerPatch{Gold: &racer})
			s.Require().NoError(err)
		}
		gold := current.Gold - 25
		return model.PlayerPatch{Gold: &gold}, nil
	})
	s.Require().NoError(err)
	s.Equal(2, calls)
	s.Equal(int64(25), updated.Gold)
	s.Equal(int64(2), updated.Version)
}

func (s *StorageSuite) TestPlayerExists() {
	exists, err := s.storage.PlayerExists(s.ctx, "player-1")
	s.Require().NoError(err)
	s.False(exists)

	s.savePlayer()
	exists, err = s.storage.PlayerExists(s.ctx, "player-1")
	s.Require().NoError(err)
	s.True(exists)
}

// Cooldown tests

func (s *StorageSuite) TestCooldownStoredAsEpochMillis() {
	key := model.CooldownKey("player-1", model.ActionFish)
	expiry := time.UnixMilli(1_700_000_045_000)

	s.Require().NoError(s.storage.SetCooldown(s.ctx, key, expiry))

	raw, err := s.mini.Get(cooldownKey(key))
	s.Require().NoError(err)
	s.Equal("1700000045000", raw)
	s.Equal(time.Hour, s.mini.TTL(cooldownKey(key)))

	got, err := s.storage.GetCooldown(s.ctx, key)
	s.Require().NoError(err)
	s.True(got.Equal(expiry))
}

func (s *StorageSuite) TestCooldownRetentionEvicts() {
	key := model.CooldownKey("player-1", model.ActionWork)
	s.Require().NoError(s.storage.SetCooldown(s.ctx, key, time.UnixMilli(1)))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetCooldown(s.ctx, key)
	s.ErrorIs(err, model.ErrCooldownNotFound)
}

func (s *StorageSuite) TestSweepCooldowns() {
	now := time.UnixMilli(1_700_000_000_000)
	s.Require().NoError(s.storage.SetCooldown(s.ctx, "cooldown_work_a", now.Add(-time.Minute)))
	s.Require().NoError(s.storage.SetCooldown(s.ctx, "cooldown_train_a", now.Add(time.Minute)))
	s.mini.Set(playerKey("untouched"), `{"id":"untouched"}`)

	removed, err := s.storage.SweepCooldowns(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.storage.GetCooldown(s.ctx, "cooldown_work_a")
	s.ErrorIs(err, model.ErrCooldownNotFound)
	_, err = s.storage.GetCooldown(s.ctx, "cooldown_train_a")
	s.NoError(err)
	s.True(s.mini.Exists(playerKey("untouched")))
}

func (s *StorageSuite) TestClaimCooldown() {
	now := time.UnixMilli(1_700_000_000_000)
	key := model.CooldownKey("player-1", model.ActionTrain)

	expiry, claimed, err := s.storage.ClaimCooldown(s.ctx, key, now, now.Add(90*time.Second))
	s.Require().NoError(err)
	s.True(claimed)
	s.True(expiry.Equal(now.Add(90 * time.Second)))
	s.Equal(time.Hour, s.mini.TTL(cooldownKey(key)))

	expiry, claimed, err = s.storage.ClaimCooldown(s.ctx, key, now.Add(30*time.Second), now.Add(120*time.Second))
	s.Require().NoError(err)
	s.False(claimed)
	s.True(expiry.Equal(now.Add(90 * time.Second)))

	raw, err := s.mini.Get(cooldownKey(key))
	s.Require().NoError(err)
	s.Equal("1700000090000", raw)
}

func (s *StorageSuite) TestClaimCooldownReplacesLapsedEntry() {
	now := time.UnixMilli(1_700_000_000_000)
	key := model.CooldownKey("player-1", model.ActionSleep)
	s.Require().NoError(s.storage.SetCooldown(s.ctx, key, now))

	expiry, claimed, err := s.storage.ClaimCooldown(s.ctx, key, now, now.Add(time.Minute))
	s.Require().NoError(err)
	s.True(claimed)
	s.True(expiry.Equal(now.Add(time.Minute)))
}

// Payment ledger tests

func (s *StorageSuite) TestPaymentLedger() {
	first, err := s.storage.MarkPaymentProcessed(s.ctx, "pay-9")
	s.Require().NoError(err)
	s.True(first)
	s.Equal(2*time.Hour, s.mini.TTL(paymentKey("pay-9")))

	again, err := s.storage.MarkPaymentProcessed(s.ctx, "pay-9")
	s.Require().NoError(err)
	s.False(again)

	s.Require().NoError(s.storage.ReleasePayment(s.ctx, "pay-9"))
	s.False(s.mini.Exists(paymentKey("pay-9")))
}
