package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// PlayerPatch is a partial update to a player record. Nil fields are left untouched.
type PlayerPatch struct {
	Name       *string
	Health     *int64
	Level      *int64
	Experience *int64
	Energy     *int64
	Mana       *int64
	Gold       *int64

	MonetaryBalance *decimal.Decimal

	// Inventory replaces the whole inventory when non-nil; counts <= 0 are dropped.
	Inventory map[string]int64

	// Extra sets unmodelled attributes.
	Extra map[string]json.RawMessage

	// ExpectedVersion makes the patch conditional on the stored version.
	// Zero only disables the check when CheckVersion is unset, since records
	// written without a version decode to zero.
	ExpectedVersion int64
	CheckVersion    bool
}

// Conditional reports whether Apply compares the stored version
func (p PlayerPatch) Conditional() bool {
	return p.CheckVersion || p.ExpectedVersion != 0
}

// IsEmpty reports whether the patch changes nothing
func (p PlayerPatch) IsEmpty() bool {
	return p.Name == nil && p.Health == nil && p.Level == nil && p.Experience == nil &&
		p.Energy == nil && p.Mana == nil && p.Gold == nil && p.MonetaryBalance == nil &&
		p.Inventory == nil && len(p.Extra) == 0
}

// Fields lists the document keys the patch touches, sorted
func (p PlayerPatch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Name != nil, FieldName)
	add(p.Health != nil, FieldHealth)
	add(p.Level != nil, FieldLevel)
	add(p.Experience != nil, FieldExperience)
	add(p.Energy != nil, FieldEnergy)
	add(p.Mana != nil, FieldMana)
	add(p.Gold != nil, FieldGold)
	add(p.MonetaryBalance != nil, FieldMonetaryBalance)
	add(p.Inventory != nil, FieldInventory)
	for k := range p.Extra {
		fields = append(fields, k)
	}
	slices.Sort(fields)
	return fields
}

// Apply returns a copy of current with the patch applied and the version bumped.
// The input record is never modified.
func (p PlayerPatch) Apply(current *PlayerRecord) (*PlayerRecord, error) {
	if p.IsEmpty() {
		return nil, fmt.Errorf("%w: patch has no fields", ErrValidation)
	}
	if p.Conditional() && current.Version != p.ExpectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, found %d", ErrConflict, p.ExpectedVersion, current.Version)
	}

	next := current.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	setInt(&next.Health, p.Health)
	setInt(&next.Level, p.Level)
	setInt(&next.Experience, p.Experience)
	setInt(&next.Energy, p.Energy)
	setInt(&next.Mana, p.Mana)
	if p.Gold != nil {
		next.Gold = *p.Gold
	}
	if p.MonetaryBalance != nil {
		next.MonetaryBalance = p.MonetaryBalance.Round(2)
	}
	if p.Inventory != nil {
		next.Inventory = make(map[string]int64, len(p.Inventory))
		for item, count := range p.Inventory {
			if count > 0 {
				next.Inventory[item] = count
			}
		}
	}
	for k, v := range p.Extra {
		if IsKnownField(k) {
			return nil, fmt.Errorf("%w: %q cannot be set as an extra attribute", ErrValidation, k)
		}
		if next.Extra == nil {
			next.Extra = make(map[string]json.RawMessage)
		}
		next.Extra[k] = v
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.Version = current.Version + 1
	return next, nil
}

// UnmarshalJSON decodes a partial document. Keys that are absent stay nil;
// unmodelled keys land in Extra.
func (p *PlayerPatch) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var patch PlayerPatch
	for key, raw := range doc {
		var err error
		switch key {
		case FieldName:
			var name string
			err = json.Unmarshal(raw, &name)
			patch.Name = &name
		case FieldHealth:
			patch.Health, err = decodeRequiredInt(raw)
		case FieldLevel:
			patch.Level, err = decodeRequiredInt(raw)
		case FieldExperience:
			patch.Experience, err = decodeRequiredInt(raw)
		case FieldEnergy:
			patch.Energy, err = decodeRequiredInt(raw)
		case FieldMana:
			patch.Mana, err = decodeRequiredInt(raw)
		case FieldGold:
			patch.Gold, err = decodeRequiredInt(raw)
		case FieldMonetaryBalance:
			var d decimal.Decimal
			err = d.UnmarshalJSON(raw)
			patch.MonetaryBalance = &d
		case FieldInventory:
			inv := map[string]int64{}
			err = json.Unmarshal(raw, &inv)
			patch.Inventory = inv
		case FieldVersion, "expected_version":
			err = decodeInt(raw, &patch.ExpectedVersion)
			patch.CheckVersion = true
		case FieldID, FieldPasswordHash:
			err = fmt.Errorf("%w: %s cannot be patched", ErrValidation, key)
		default:
			if patch.Extra == nil {
				patch.Extra = make(map[string]json.RawMessage)
			}
			patch.Extra[key] = raw
		}
		if err != nil {
			if IsKnownField(key) {
				return fmt.Errorf("%w: invalid %s: %v", ErrValidation, key, err)
			}
			return err
		}
	}

	*p = patch
	return nil
}

// MarshalJSON encodes only the fields the patch sets
func (p PlayerPatch) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any)
	maps.Copy(doc, anyMap(p.Extra))
	if p.Name != nil {
		doc[FieldName] = *p.Name
	}
	putInt(doc, FieldHealth, p.Health)
	putInt(doc, FieldLevel, p.Level)
	putInt(doc, FieldExperience, p.Experience)
	putInt(doc, FieldEnergy, p.Energy)
	putInt(doc, FieldMana, p.Mana)
	putInt(doc, FieldGold, p.Gold)
	if p.MonetaryBalance != nil {
		doc[FieldMonetaryBalance] = json.Number(p.MonetaryBalance.StringFixed(2))
	}
	if p.Inventory != nil {
		doc[FieldInventory] = p.Inventory
	}
	if p.Conditional() {
		doc[FieldVersion] = p.ExpectedVersion
	}
	return json.Marshal(doc)
}

func setInt(dst **int64, v *int64) {
	if v != nil {
		*dst = cloneInt(v)
	}
}

func decodeRequiredInt(raw json.RawMessage) (*int64, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("null is not allowed")
	}
	return decodeOptionalInt(raw)
}

func anyMap(m map[string]json.RawMessage) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
