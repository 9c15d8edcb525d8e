package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/shopspring/decimal"
)

// PlayerID uniquely identifies a player record
type PlayerID string

// PlayerRecord is the persisted per-player state.
//
// Known attributes are typed; anything else found in the stored document is
// kept in Extra and written back verbatim.
type PlayerRecord struct {
	ID   PlayerID
	Name string

	// Optional statistics; nil means absent from the document.
	Health     *int64
	Level      *int64
	Experience *int64
	Energy     *int64
	Mana       *int64

	Gold            int64
	MonetaryBalance decimal.Decimal
	Inventory       map[string]int64

	// PasswordHash is never exposed through presentation views.
	PasswordHash string

	// Version increases by one on every successful patch.
	Version int64

	Extra map[string]json.RawMessage
}

// Document keys for the modelled attributes
const (
	FieldID              = "id"
	FieldName            = "name"
	FieldHealth          = "health"
	FieldLevel           = "level"
	FieldExperience      = "experience"
	FieldEnergy          = "energy"
	FieldMana            = "mana"
	FieldGold            = "gold"
	FieldMonetaryBalance = "monetaryBalance"
	FieldInventory       = "inventory"
	FieldPasswordHash    = "passwordHash"
	FieldVersion         = "version"
)

var knownFields = map[string]struct{}{
	FieldID: {}, FieldName: {}, FieldHealth: {}, FieldLevel: {}, FieldExperience: {},
	FieldEnergy: {}, FieldMana: {}, FieldGold: {}, FieldMonetaryBalance: {},
	FieldInventory: {}, FieldPasswordHash: {}, FieldVersion: {},
}

// IsKnownField reports whether key is one of the typed record attributes
func IsKnownField(key string) bool {
	_, ok := knownFields[key]
	return ok
}

// IsSecretField reports whether an unmodelled key looks like it carries a credential
func IsSecretField(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "secret") || strings.Contains(k, "token")
}

// Int64 returns a pointer to v
func Int64(v int64) *int64 {
	return &v
}

// ExperienceValue returns the experience points, treating absent as zero
func (p *PlayerRecord) ExperienceValue() int64 {
	if p.Experience == nil {
		return 0
	}
	return *p.Experience
}

// ItemCount returns how many of the named item the player holds
func (p *PlayerRecord) ItemCount(item string) int64 {
	return p.Inventory[item]
}

// Clone returns a deep copy of the record
func (p *PlayerRecord) Clone() *PlayerRecord {
	if p == nil {
		return nil
	}
	c := *p
	c.Health = cloneInt(p.Health)
	c.Level = cloneInt(p.Level)
	c.Experience = cloneInt(p.Experience)
	c.Energy = cloneInt(p.Energy)
	c.Mana = cloneInt(p.Mana)
	if p.Inventory != nil {
		c.Inventory = maps.Clone(p.Inventory)
	}
	if p.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = bytes.Clone(v)
		}
	}
	return &c
}

// Validate checks the record invariants: non-negative currency and stats,
// and inventory counts that are strictly positive.
func (p *PlayerRecord) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: player id is required", ErrValidation)
	}
	if p.Gold < 0 {
		return fmt.Errorf("%w: gold must not be negative", ErrValidation)
	}
	if p.MonetaryBalance.IsNegative() {
		return fmt.Errorf("%w: monetary balance must not be negative", ErrValidation)
	}
	stats := map[string]*int64{
		FieldHealth: p.Health, FieldLevel: p.Level, FieldExperience: p.Experience,
		FieldEnergy: p.Energy, FieldMana: p.Mana,
	}
	for name, v := range stats {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, name)
		}
	}
	for item, count := range p.Inventory {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("%w: inventory item name is empty", ErrValidation)
		}
		if count <= 0 {
			return fmt.Errorf("%w: inventory count for %q must be positive", ErrValidation, item)
		}
	}
	return nil
}

// MarshalJSON writes the stored document form, including PasswordHash and Extra
func (p PlayerRecord) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(p.Extra)+len(knownFields))
	for k, v := range p.Extra {
		if IsKnownField(k) {
			continue
		}
		doc[k] = v
	}
	doc[FieldID] = p.ID
	doc[FieldName] = p.Name
	putInt(doc, FieldHealth, p.Health)
	putInt(doc, FieldLevel, p.Level)
	putInt(doc, FieldExperience, p.Experience)
	putInt(doc, FieldEnergy, p.Energy)
	putInt(doc, FieldMana, p.Mana)
	doc[FieldGold] = p.Gold
	doc[FieldMonetaryBalance] = json.Number(p.MonetaryBalance.StringFixed(2))
	inventory := p.Inventory
	if inventory == nil {
		inventory = map[string]int64{}
	}
	doc[FieldInventory] = inventory
	if p.PasswordHash != "" {
		doc[FieldPasswordHash] = p.PasswordHash
	}
	doc[FieldVersion] = p.Version
	return json.Marshal(doc)
}

// UnmarshalJSON reads the stored document form, keeping unknown keys in Extra
func (p *PlayerRecord) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var rec PlayerRecord
	for key, raw := range doc {
		var err error
		switch key {
		case FieldID:
			err = json.Unmarshal(raw, &rec.ID)
		case FieldName:
			err = json.Unmarshal(raw, &rec.Name)
		case FieldHealth:
			rec.Health, err = decodeOptionalInt(raw)
		case FieldLevel:
			rec.Level, err = decodeOptionalInt(raw)
		case FieldExperience:
			rec.Experience, err = decodeOptionalInt(raw)
		case FieldEnergy:
			rec.Energy, err = decodeOptionalInt(raw)
		case FieldMana:
			rec.Mana, err = decodeOptionalInt(raw)
		case FieldGold:
			err = decodeInt(raw, &rec.Gold)
		case FieldMonetaryBalance:
			if !isNull(raw) {
				err = rec.MonetaryBalance.UnmarshalJSON(raw)
			}
		case FieldInventory:
			if !isNull(raw) {
				err = json.Unmarshal(raw, &rec.Inventory)
			}
		case FieldPasswordHash:
			if !isNull(raw) {
				err = json.Unmarshal(raw, &rec.PasswordHash)
			}
		case FieldVersion:
			err = decodeInt(raw, &rec.Version)
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]json.RawMessage)
			}
			rec.Extra[key] = raw
		}
		if err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
	}
	for item, count := range rec.Inventory {
		if count <= 0 {
			delete(rec.Inventory, item)
		}
	}

	*p = rec
	return nil
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func putInt(doc map[string]any, key string, v *int64) {
	if v != nil {
		doc[key] = *v
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeInt accepts whole numbers written either as integers or as floats with no fraction
func decodeInt(raw json.RawMessage, dst *int64) error {
	if isNull(raw) {
		*dst = 0
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	if v, err := n.Int64(); err == nil {
		*dst = v
		return nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return err
	}
	if !d.IsInteger() {
		return fmt.Errorf("%s is not a whole number", n)
	}
	*dst = d.IntPart()
	return nil
}

func decodeOptionalInt(raw json.RawMessage) (*int64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v int64
	if err := decodeInt(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
