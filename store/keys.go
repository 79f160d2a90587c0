package store

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// effectiveTenant applies the system-resource override: records in the
// system-resource table always live under the system-admin tenant partition,
// whatever tenant the caller resolved to.
func (a *Accessor) effectiveTenant() string {
	if a.cfg.SystemResourceTable != "" && a.cfg.Table.Name == a.cfg.SystemResourceTable {
		return a.cfg.SystemAdminTenantID
	}
	return a.principal.TenantID
}

// keyFor builds the primary key for an entity under whichever key schema the
// table declares.
func (a *Accessor) keyFor(tenantID, entityItemID string) PK {
	schema := a.cfg.Table.KeySchema
	key := make(PK, len(schema))
	switch len(schema) {
	case 2:
		key[schema[0]] = &types.AttributeValueMemberS{Value: tenantID}
		key[schema[1]] = &types.AttributeValueMemberS{Value: entityItemID}
	case 1:
		key[schema[0]] = &types.AttributeValueMemberS{Value: entityItemID}
	}
	return key
}

// stampKey writes the key attributes onto a new item per the table schema.
func (a *Accessor) stampKey(item Item, tenantID, entityItemID string) {
	schema := a.cfg.Table.KeySchema
	switch len(schema) {
	case 2:
		item[schema[0]] = tenantID
		item[schema[1]] = entityItemID
	case 1:
		item[schema[0]] = entityItemID
	}
}
