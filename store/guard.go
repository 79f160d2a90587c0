package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/ledgewood/tenantstore/internal/entityid"
)

// constraintPrefix is the entity type under which constraint records are
// stored when no external registry is configured.
const constraintPrefix = "EntityConstraint"

// Delete removes an entity after verifying no live child records reference
// it. The check and the delete are separate store calls with no lock
// between them; a child created in that window is not detected.
func (a *Accessor) Delete(ctx context.Context, entityItemID string) error {
	if !a.principal.Authorized() {
		return ErrAccessDenied
	}

	prefix := entityid.Prefix(entityItemID)
	constraint, err := a.constraints().GetConstraint(ctx, prefix)
	if err != nil {
		return err
	}

	var blocked []string
	if constraint != nil {
		for _, ref := range constraint.ReferencedBy {
			children, err := a.List(ctx, Query{
				Prefix: ref.Name,
				Parent: &ParentFilter{Attribute: ref.ForeignKey, Value: entityItemID},
			})
			if err != nil {
				return err
			}
			if len(children) > 0 {
				blocked = append(blocked, ref.Name)
			}
		}
	}
	if len(blocked) > 0 {
		return &IntegrityError{Prefix: prefix, Children: blocked}
	}

	if _, err := a.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(a.cfg.Table.Name),
		Key:       a.keyFor(a.effectiveTenant(), entityItemID),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", entityItemID, err)
	}
	return nil
}

func (a *Accessor) constraints() ConstraintSource {
	if a.source != nil {
		return a.source
	}
	return storeConstraints{a}
}

// storeConstraints resolves constraint records stored as entities in the
// same table, the default when no registry file is configured.
type storeConstraints struct {
	a *Accessor
}

// GetConstraint implements ConstraintSource.
func (s storeConstraints) GetConstraint(ctx context.Context, prefix string) (*Constraint, error) {
	items, err := s.a.List(ctx, Query{
		Prefix:  constraintPrefix,
		Filters: map[string]FilterValue{"Name": Scalar(prefix)},
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return decodeConstraint(items[0]), nil
}

// decodeConstraint reads a constraint entity into its typed form.
func decodeConstraint(item Item) *Constraint {
	c := &Constraint{}
	c.Name, _ = item["Name"].(string)
	refs, _ := item["ReferencedBy"].([]any)
	for _, r := range refs {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		var ref Reference
		ref.Name, _ = m["Name"].(string)
		ref.ForeignKey, _ = m["ForeignKey"].(string)
		c.ReferencedBy = append(c.ReferencedBy, ref)
	}
	return c
}
