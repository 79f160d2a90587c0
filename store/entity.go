package store

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute names managed by the access layer. Audit attributes are written
// only by mutation operations, never by query paths.
const (
	attrTenantID     = "TenantId"
	attrEntityItemID = "EntityItemId"
	attrCreatedAt    = "CreatedAt"
	attrCreatedBy    = "CreatedBy"
	attrUpdatedAt    = "UpdatedAt"
	attrUpdatedBy    = "UpdatedBy"
	attrTransform    = "GetAndTransform"
)

// Item is a schemaless entity record in document form.
type Item map[string]any

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

// LogicalOp joins filter clauses.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// FilterValue is the tagged variant for a filter request value: a scalar,
// a list of alternatives, or an exact match on the empty string.
type FilterValue struct {
	scalar string
	list   []string
	isList bool
}

// Scalar builds a single-value filter. The empty string means exact-match
// on empty.
func Scalar(v string) FilterValue { return FilterValue{scalar: v} }

// List builds a multi-value filter; one sub-clause is compiled per value.
func List(vs ...string) FilterValue { return FilterValue{list: vs, isList: true} }

// IsEmpty reports whether this is an exact-match-on-empty filter.
func (v FilterValue) IsEmpty() bool { return !v.isList && v.scalar == "" }

// Values returns the list values, or the scalar as a one-element list.
func (v FilterValue) Values() []string {
	if v.isList {
		return v.list
	}
	return []string{v.scalar}
}

// ParentFilter scopes child entities to a single foreign-key value.
type ParentFilter struct {
	// Attribute is the foreign-key attribute name on the child.
	Attribute string

	// Value is the parent's entity id.
	Value string
}

// Query is a generic listing request against one entity type.
type Query struct {
	// Prefix is the entity type prefix used for the sort-key range scan.
	Prefix string

	// Filters maps attribute paths (dot-separated for nested attributes) to
	// filter values. Keys starting with "_" are excluded from the native
	// query and applied in memory after reference resolution, with the
	// leading underscore stripped.
	Filters map[string]FilterValue

	// Operators is the logical-operator list, consumed positionally against
	// the compiled filter clauses. Empty means AND at every boundary.
	Operators []LogicalOp

	// Projection lists attribute names to project; empty means all attributes.
	Projection []string

	// Parent optionally ANDs a foreign-key clause onto the compiled filter.
	Parent *ParentFilter
}

// Reference declares a child entity type and the attribute through which it
// references its parent.
type Reference struct {
	Name       string `yaml:"name"`
	ForeignKey string `yaml:"foreignKey"`
}

// Constraint is the referential-integrity record for one entity type.
type Constraint struct {
	Name         string      `yaml:"name"`
	ReferencedBy []Reference `yaml:"referencedBy"`
}

// BatchUpdateResult reports the outcome of an UpdateBatch call.
type BatchUpdateResult struct {
	// Items are the applied patch bodies with id, tenant, and update audit
	// attributes restored.
	Items []Item

	// Unresolved are patches skipped because they carried no entity id.
	Unresolved []Item
}
