package domain

import "time"

// AttributeMapping maps one outbound assertion claim to a principal field.
type AttributeMapping struct {
	// Claim is the Attribute Name emitted in the assertion.
	Claim string `json:"claim" yaml:"claim"`

	// SourceField is the principal attribute key the value is read from.
	SourceField string `json:"source_field" yaml:"source_field"`
}

// TrustedSP is a registered service provider. Records are treated as
// immutable once stored; administrative updates replace the record.
type TrustedSP struct {
	// EntityID is the unique key of the trust relationship.
	EntityID string `json:"entity_id" yaml:"entity_id"`

	// Name is an optional display name, unique when set.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// ACSURL is the assertion consumer service endpoint responses are
	// posted to.
	ACSURL string `json:"acs_url" yaml:"acs_url"`

	// AttributeContract lists the claims issued to this SP, in order.
	AttributeContract []AttributeMapping `json:"attribute_contract,omitempty" yaml:"attribute_contract,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Clone returns a deep copy so stored records stay immutable when the
// caller mutates the result.
func (sp *TrustedSP) Clone() *TrustedSP {
	dup := *sp
	if sp.AttributeContract != nil {
		dup.AttributeContract = make([]AttributeMapping, len(sp.AttributeContract))
		copy(dup.AttributeContract, sp.AttributeContract)
	}
	return &dup
}
