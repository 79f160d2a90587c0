package store

import (
	"os"

	"github.com/joho/godotenv"
)

// TableDefinition describes the DynamoDB table an accessor fronts.
type TableDefinition struct {
	// Name is the DynamoDB table name.
	Name string

	// KeySchema lists the key attribute names in schema order. Two attributes
	// mean (partition, sort) = (tenant id, entity item id); a single attribute
	// means the table is keyed by entity item id alone.
	KeySchema []string
}

// Config holds configuration for an Accessor.
type Config struct {
	// Table is the table this accessor operates on.
	Table TableDefinition

	// SystemResourceTable names the shared system-resource table. When Table
	// matches it, the effective tenant is SystemAdminTenantID regardless of
	// the caller's tenant.
	SystemResourceTable string

	// SystemAdminTenantID is the fixed tenant partition for system resources.
	SystemAdminTenantID string

	// Region is the AWS region used for client construction.
	Region string
}

// FromEnv builds a Config from the environment, loading a .env file first
// when one is present.
func FromEnv() Config {
	_ = godotenv.Load()
	return Config{
		Table: TableDefinition{
			Name: os.Getenv("ENTITY_TABLE"),
		},
		SystemResourceTable: os.Getenv("SRM_TABLE"),
		SystemAdminTenantID: os.Getenv("SYSTEM_ADMIN_TENANT_ID"),
		Region:              os.Getenv("AWS_REGION"),
	}
}

// validate fills in defaults for unset values.
func (c *Config) validate() {
	if len(c.Table.KeySchema) == 0 {
		c.Table.KeySchema = []string{attrTenantID, attrEntityItemID}
	}
}
