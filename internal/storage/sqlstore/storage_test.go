package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpgdash/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()
	st, err := Open(s.ctx, Config{Dialect: "sqlite", DSN: ":memory:"})
	s.Require().NoError(err)
	s.storage = st
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) savePlayer() {
	err := s.storage.SavePlayer(s.ctx, &model.PlayerRecord{ID: "p1", Name: "Ayla", Gold: 30, Experience: model.Int64(2)})
	s.Require().NoError(err)
}

func (s *StorageSuite) TestSaveAndGetPlayer() {
	s.savePlayer()

	got, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Ayla", got.Name)
	s.Equal(int64(30), got.Gold)
	s.Equal(int64(2), got.ExperienceValue())
	s.Equal(int64(1), got.Version)
}

func (s *StorageSuite) TestSavePlayerReplaces() {
	s.savePlayer()
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.PlayerRecord{ID: "p1", Name: "Bo", Gold: 1, Version: 4}))

	got, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Bo", got.Name)
	s.Equal(int64(4), got.Version)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nope")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestPatchPlayerConditional() {
	s.savePlayer()

	gold := int64(10)
	updated, err := s.storage.PatchPlayer(s.ctx, "p1", model.PlayerPatch{Gold: &gold, ExpectedVersion: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), updated.Version)

	_, err = s.storage.PatchPlayer(s.ctx, "p1", model.PlayerPatch{Gold: &gold, ExpectedVersion: 1})
	s.ErrorIs(err, model.ErrConflict)

	got, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(int64(10), got.Gold)
	s.Equal(int64(2), got.Version)
}

func (s *StorageSuite) TestPatchRejectedByValidationLeavesRecord() {
	s.savePlayer()

	gold := int64(-5)
	_, err := s.storage.PatchPlayer(s.ctx, "p1", model.PlayerPatch{Gold: &gold})
	s.ErrorIs(err, model.ErrValidation)

	got, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(int64(30), got.Gold)
}

func (s *StorageSuite) TestCooldowns() {
	now := time.UnixMilli(1_700_000_000_000)
	s.Require().NoError(s.storage.SetCooldown(s.ctx, "cooldown_work_p1", now.Add(time.Minute)))
	s.Require().NoError(s.storage.SetCooldown(s.ctx, "cooldown_work_p1", now.Add(2*time.Minute)))
	s.Require().NoError(s.storage.SetCooldown(s.ctx, "cooldown_fish_p1", now.Add(-time.Second)))

	got, err := s.storage.GetCooldown(s.ctx, "cooldown_work_p1")
	s.Require().NoError(err)
	s.True(got.Equal(now.Add(2 * time.Minute)))

	removed, err := s.storage.SweepCooldowns(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(1, removed)

	s.Require().NoError(s.storage.DeleteCooldown(s.ctx, "cooldown_work_p1"))
	_, err = s.storage.GetCooldown(s.ctx, "cooldown_work_p1")
	s.ErrorIs(err, model.ErrCooldownNotFound)
}

func (s *StorageSuite) TestClaimCooldown() {
	now := time.UnixMilli(1_700_000_000_000)

	expiry, claimed, err := s.storage.ClaimCooldown(s.ctx, "cooldown_work_p1", now, now.Add(time.Minute))
	s.Require().NoError(err)
	s.True(claimed)
	s.True(expiry.Equal(now.Add(time.Minute)))

	expiry, claimed, err = s.storage.ClaimCooldown(s.ctx, "cooldown_work_p1", now.Add(20*time.Second), now.Add(80*time.Second))
	s.Require().NoError(err)
	s.False(claimed)
	s.True(expiry.Equal(now.Add(time.Minute)))

	expiry, claimed, err = s.storage.ClaimCooldown(s.ctx, "cooldown_work_p1", now.Add(time.Minute), now.Add(2*time.Minute))
	s.Require().NoError(err)
	s.True(claimed)
	s.True(expiry.Equal(now.Add(2 * time.Minute)))

	got, err := s.storage.GetCooldown(s.ctx, "cooldown_work_p1")
	s.Require().NoError(err)
	s.True(got.Equal(now.Add(2 * time.Minute)))
}

func (s *StorageSuite) TestPaymentLedger() {
	first, err := s.storage.MarkPaymentProcessed(s.ctx, "pay-1")
	s.Require().NoError(err)
	s.True(first)

	second, err := s.storage.MarkPaymentProcessed(s.ctx, "pay-1")
	s.Require().NoError(err)
	s.False(second)

	s.Require().NoError(s.storage.ReleasePayment(s.ctx, "pay-1"))
	third, err := s.storage.MarkPaymentProcessed(s.ctx, "pay-1")
	s.Require().NoError(err)
	s.True(third)
}

func TestOpenFileDatabaseCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rpgdash.db")
	st, err := Open(context.Background(), Config{Dialect: "sqlite", DSN: path})
	if !assert.NoError(t, err) {
		return
	}
	defer st.Close()

	assert.NoError(t, st.SavePlayer(context.Background(), &model.PlayerRecord{ID: "p1"}))
	exists, err := st.PlayerExists(context.Background(), "p1")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestRebind(t *testing.T) {
	q := "UPDATE players SET data = ?, version = ? WHERE id = ?"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "UPDATE players SET data = $1, version = $2 WHERE id = $3", Postgres.Rebind(q))
}

func TestDialectByName(t *testing.T) {
	d, err := DialectByName("PostgreSQL")
	assert.NoError(t, err)
	assert.Equal(t, Postgres, d)

	_, err = DialectByName("oracle")
	assert.Error(t, err)
}
