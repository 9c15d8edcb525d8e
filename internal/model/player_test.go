package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PlayerRecordSuite struct {
	suite.Suite
}

func TestPlayerRecordSuite(t *testing.T) {
	suite.Run(t, new(PlayerRecordSuite))
}

func (s *PlayerRecordSuite) TestUnmarshalKeepsUnknownFields() {
	doc := `{"id":"p1","name":"Ayla","gold":40,"monetaryBalance":12.5,"inventory":{"potion":2,"rope":0},"guild":{"name":"Owls"},"version":3}`

	var rec PlayerRecord
	s.Require().NoError(json.Unmarshal([]byte(doc), &rec))

	s.Equal(PlayerID("p1"), rec.ID)
	s.Equal("Ayla", rec.Name)
	s.Equal(int64(40), rec.Gold)
	s.True(rec.MonetaryBalance.Equal(decimal.RequireFromString("12.5")))
	s.Equal(map[string]int64{"potion": 2}, rec.Inventory)
	s.Equal(int64(3), rec.Version)
	s.Nil(rec.Health)
	s.JSONEq(`{"name":"Owls"}`, string(rec.Extra["guild"]))
}

func (s *PlayerRecordSuite) TestMarshalRoundTripsExtraAndOmitsAbsentStats() {
	rec := PlayerRecord{
		ID:              "p1",
		Name:            "Ayla",
		Level:           Int64(4),
		Gold:            10,
		MonetaryBalance: decimal.RequireFromString("3.1"),
		Extra:           map[string]json.RawMessage{"title": json.RawMessage(`"Angler"`)},
		Version:         1,
	}

	data, err := json.Marshal(rec)
	s.Require().NoError(err)
	s.JSONEq(`{"id":"p1","name":"Ayla","level":4,"gold":10,"monetaryBalance":3.10,"inventory":{},"title":"Angler","version":1}`, string(data))
}

func (s *PlayerRecordSuite) TestDecodeAcceptsWholeFloats() {
	var rec PlayerRecord
	s.Require().NoError(json.Unmarshal([]byte(`{"id":"p1","gold":25.0,"experience":7}`), &rec))
	s.Equal(int64(25), rec.Gold)
	s.Equal(int64(7), rec.ExperienceValue())

	err := json.Unmarshal([]byte(`{"id":"p1","gold":2.5}`), &rec)
	s.Error(err)
}

func (s *PlayerRecordSuite) TestCloneIsDeep() {
	rec := &PlayerRecord{ID: "p1", Experience: Int64(5), Inventory: map[string]int64{"potion": 1}}
	c := rec.Clone()
	*c.Experience = 9
	c.Inventory["potion"] = 3

	s.Equal(int64(5), *rec.Experience)
	s.Equal(int64(1), rec.Inventory["potion"])
}

func (s *PlayerRecordSuite) TestSecretFieldDetection() {
	s.True(IsSecretField("apiToken"))
	s.True(IsSecretField("Password"))
	s.True(IsSecretField("client_secret"))
	s.False(IsSecretField("guild"))
}

type PlayerPatchSuite struct {
	suite.Suite
	base *PlayerRecord
}

func TestPlayerPatchSuite(t *testing.T) {
	suite.Run(t, new(PlayerPatchSuite))
}

func (s *PlayerPatchSuite) SetupTest() {
	s.base = &PlayerRecord{
		ID:         "p1",
		Name:       "Ayla",
		Gold:       100,
		Experience: Int64(10),
		Inventory:  map[string]int64{"potion": 1},
		Version:    2,
	}
}

func (s *PlayerPatchSuite) TestApplySetsFieldsAndBumpsVersion() {
	gold := int64(60)
	next, err := PlayerPatch{Gold: &gold, Experience: Int64(30)}.Apply(s.base)
	s.Require().NoError(err)

	s.Equal(int64(60), next.Gold)
	s.Equal(int64(30), *next.Experience)
	s.Equal(int64(3), next.Version)
	s.Equal(int64(100), s.base.Gold)
	s.Equal(int64(2), s.base.Version)
}

func (s *PlayerPatchSuite) TestApplyRejectsStaleVersion() {
	gold := int64(60)
	_, err := PlayerPatch{Gold: &gold, ExpectedVersion: 1}.Apply(s.base)
	s.ErrorIs(err, ErrConflict)
}

func (s *PlayerPatchSuite) TestApplyChecksVersionZeroWhenRequested() {
	gold := int64(60)
	patch := PlayerPatch{Gold: &gold, ExpectedVersion: 0, CheckVersion: true}
	_, err := patch.Apply(s.base)
	s.ErrorIs(err, ErrConflict)

	unversioned := s.base.Clone()
	unversioned.Version = 0
	next, err := patch.Apply(unversioned)
	s.Require().NoError(err)
	s.Equal(int64(1), next.Version)
}

func (s *PlayerPatchSuite) TestUnmarshalExplicitZeroVersionIsConditional() {
	var patch PlayerPatch
	s.Require().NoError(json.Unmarshal([]byte(`{"gold":1,"expected_version":0}`), &patch))
	s.True(patch.Conditional())

	s.Require().NoError(json.Unmarshal([]byte(`{"gold":1}`), &patch))
	s.False(patch.Conditional())
}

func (s *PlayerPatchSuite) TestApplyRejectsNegativeGold() {
	gold := int64(-1)
	_, err := PlayerPatch{Gold: &gold}.Apply(s.base)
	s.ErrorIs(err, ErrValidation)
}

func (s *PlayerPatchSuite) TestApplyRejectsEmptyPatch() {
	_, err := PlayerPatch{}.Apply(s.base)
	s.ErrorIs(err, ErrValidation)
}

func (s *PlayerPatchSuite) TestInventoryReplacementDropsNonPositiveCounts() {
	next, err := PlayerPatch{Inventory: map[string]int64{"potion": 0, "sword": 1}}.Apply(s.base)
	s.Require().NoError(err)
	s.Equal(map[string]int64{"sword": 1}, next.Inventory)
}

func (s *PlayerPatchSuite) TestMonetaryBalanceRoundsToCents() {
	bal := decimal.RequireFromString("10.005")
	next, err := PlayerPatch{MonetaryBalance: &bal}.Apply(s.base)
	s.Require().NoError(err)
	s.Equal("10.01", next.MonetaryBalance.StringFixed(2))
}

func (s *PlayerPatchSuite) TestUnmarshalPartialDocument() {
	var patch PlayerPatch
	s.Require().NoError(json.Unmarshal([]byte(`{"name":"Bo","mana":3,"mood":"happy","version":2}`), &patch))

	s.Equal("Bo", *patch.Name)
	s.Equal(int64(3), *patch.Mana)
	s.Nil(patch.Gold)
	s.Equal(int64(2), patch.ExpectedVersion)
	s.Equal([]string{"mana", "mood", "name"}, patch.Fields())
}

func (s *PlayerPatchSuite) TestUnmarshalRejectsProtectedFields() {
	var patch PlayerPatch
	err := json.Unmarshal([]byte(`{"passwordHash":"x"}`), &patch)
	s.ErrorIs(err, ErrValidation)
}
