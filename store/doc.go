// Package store provides a multi-tenant entity access layer over DynamoDB.
//
// Every entity is a schemaless record stored under a composite key of
// (TenantId, EntityItemId), where EntityItemId is "<prefix>:<opaque-id>" and
// the prefix tags the entity type for sort-key range scans. The layer turns
// generic filter requests into native query expressions, drains multi-page
// result sets, resolves cross-entity references, and guards deletes with a
// referential-integrity check.
//
// # Queries
//
// A [Query] names an entity prefix plus an optional filter map, operator
// list, projection, and parent scope:
//
//	items, err := accessor.List(ctx, store.Query{
//	    Prefix: "EmployeeSalaryPayment",
//	    Filters: map[string]store.FilterValue{
//	        "Status": store.List("Pending", "Active"),
//	    },
//	    Operators: []store.LogicalOp{store.OpOr},
//	})
//
// [Accessor.List] compiles filters to equality clauses; [Accessor.Search]
// compiles them to contains() clauses. Filter keys beginning with "_" are
// never sent to the store: they are applied in memory after reference
// resolution, for attributes the store cannot evaluate natively.
//
// # Reference resolution
//
// An item carrying a GetAndTransform attribute (a list of its own attribute
// names) has each listed foreign-key field replaced, in place, by the
// referenced sibling record with its housekeeping attributes stripped.
//
// # Deletes
//
// Before a delete executes, the layer looks up the entity type's constraint
// record and queries every declared child type for live references. Any
// match refuses the delete with an [IntegrityError] naming the blocking
// child types. The check and the delete are separate store calls; the race
// between them is accepted, not prevented.
//
// # Tenancy
//
// All operations run under the principal's tenant, except when the accessor
// fronts the system-resource table: those records always live under the
// system-admin tenant regardless of the caller.
//
// # Errors
//
// Every entry point checks the principal first and short-circuits with
// [ErrAccessDenied]. Store failures are wrapped and propagated without
// retries; retry policy belongs to the client layer. A missing record on a
// point read is an absent result, not an error.
package store
