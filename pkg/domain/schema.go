// Package domain holds the two persona documents mnemo conditions replies
// on: the user domain, what is known about the person, and the self
// domain, how the assistant should behave toward them.
//
// Both are layered JSON documents. Per turn a relevant subset of each is
// activated; activation only ever deletes. Between sessions the documents
// are reconciled against the memory log, replacing whole layers.
package domain

import "slices"

// Kind tells the two domains apart.
type Kind string

const (
	KindUser Kind = "user"
	KindSelf Kind = "self"
)

const (
	// KeyDomainType is the tag every document carries.
	KeyDomainType = "domain_type"

	// LayerExpression is shared by both schemas and always activated.
	LayerExpression = "L3_expression"

	// LayerStrategy holds the self domain's relationship stages.
	LayerStrategy = "L1_strategy"

	// KeyRelationshipStages is the strategy entry keyed by trust stage.
	KeyRelationshipStages = "relationship_stages"
)

// Schema fixes the layer names a document may carry.
type Schema struct {
	Kind   Kind
	Layers []string
}

var (
	UserSchema = Schema{
		Kind:   KindUser,
		Layers: []string{"L0_boundary", "L1_pattern", "L2_preference", LayerExpression},
	}

	SelfSchema = Schema{
		Kind:   KindSelf,
		Layers: []string{"L0_boundary", LayerStrategy, "L2_reasoning", LayerExpression},
	}
)

// Has reports whether name is one of the schema's layers.
func (s Schema) Has(name string) bool {
	return slices.Contains(s.Layers, name)
}
