package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ledgewood/tenantstore/identity"
	"github.com/ledgewood/tenantstore/internal/entityid"
)

// Accessor is a per-request entity access layer over one DynamoDB table.
type Accessor struct {
	api       DynamoDBAPI
	cfg       Config
	principal identity.Principal
	source    ConstraintSource
	logger    *slog.Logger

	// RequestedAt, when non-empty, overrides "now" for audit timestamps.
	// Callers set it from the request timestamp header.
	RequestedAt string

	now func() time.Time
}

// New creates an Accessor bound to a principal and table configuration.
func New(api DynamoDBAPI, cfg Config, principal identity.Principal) *Accessor {
	cfg.validate()
	return &Accessor{
		api:       api,
		cfg:       cfg,
		principal: principal,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// SetConstraintSource overrides the default store-backed constraint lookup,
// e.g. with a file-seeded registry.
func (a *Accessor) SetConstraintSource(s ConstraintSource) {
	a.source = s
}

// SetLogger replaces the accessor's logger.
func (a *Accessor) SetLogger(l *slog.Logger) {
	if l != nil {
		a.logger = l
	}
}

func (a *Accessor) timestamp() string {
	if a.RequestedAt != "" {
		return a.RequestedAt
	}
	return a.now().UTC().Format(time.RFC3339)
}

// List returns every entity of the given type matching the query, compiling
// filters to equality clauses.
func (a *Accessor) List(ctx context.Context, q Query) ([]Item, error) {
	return a.queryAll(ctx, q, matchEquals)
}

// Search returns every entity of the given type matching the query,
// compiling filters to contains() clauses.
func (a *Accessor) Search(ctx context.Context, q Query) ([]Item, error) {
	return a.queryAll(ctx, q, matchContains)
}

func (a *Accessor) queryAll(ctx context.Context, q Query, form matchForm) ([]Item, error) {
	if !a.principal.Authorized() {
		return nil, ErrAccessDenied
	}

	compiled := compileQuery(a.cfg.Table.Name, a.effectiveTenant(), q, form)

	items, err := a.drain(ctx, compiled.input())
	if err != nil {
		return nil, err
	}

	items, err = a.resolveReferences(ctx, items)
	if err != nil {
		return nil, err
	}

	if len(compiled.postFilter) > 0 {
		items = applyPostFilters(items, compiled.postFilter)
	}
	return items, nil
}

// drain executes a descriptor and accumulates every result page in order.
// The loop is unbounded: it follows continuation tokens until the store
// stops returning them, so no partial result ever reaches a caller.
func (a *Accessor) drain(ctx context.Context, input *dynamodb.QueryInput) ([]Item, error) {
	var all []Item
	paginator := dynamodb.NewQueryPaginator(a.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", a.cfg.Table.Name, err)
		}
		for _, raw := range page.Items {
			item, err := unmarshalItem(raw)
			if err != nil {
				return nil, err
			}
			all = append(all, item)
		}
	}
	return all, nil
}

// Get retrieves one entity by id under the effective tenant. A missing
// record yields (nil, nil), not an error.
func (a *Accessor) Get(ctx context.Context, entityItemID string) (Item, error) {
	if !a.principal.Authorized() {
		return nil, ErrAccessDenied
	}

	out, err := a.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(a.cfg.Table.Name),
		Key:       a.keyFor(a.effectiveTenant(), entityItemID),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", entityItemID, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return unmarshalItem(out.Item)
}

// Create stamps and stores a new entity, returning the stored record.
func (a *Accessor) Create(ctx context.Context, prefix string, body Item) (Item, error) {
	if !a.principal.Authorized() {
		return nil, ErrAccessDenied
	}

	item := a.stampNew(prefix, body)
	if err := a.put(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateBatch creates every body under the same entity prefix. Writes are
// dispatched concurrently and the call returns once all of them finish; a
// failed write does not roll back earlier successes. The first failure is
// returned alongside the stamped items.
func (a *Accessor) CreateBatch(ctx context.Context, prefix string, bodies []Item) ([]Item, error) {
	if !a.principal.Authorized() {
		return nil, ErrAccessDenied
	}

	items := make([]Item, len(bodies))
	for i, body := range bodies {
		items[i] = a.stampNew(prefix, body)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, item := range items {
		wg.Add(1)
		go func(item Item) {
			defer wg.Done()
			if err := a.put(ctx, item); err != nil {
				a.logger.Warn("batch create item failed",
					"entityItemId", item[attrEntityItemID],
					"error", err,
				)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(item)
	}
	wg.Wait()

	return items, firstErr
}

// Update applies a patch to an entity and returns the full current record.
// The store's UPDATED_NEW response is partial, so the record is always
// re-read after the write.
func (a *Accessor) Update(ctx context.Context, entityItemID string, patch Item) (Item, error) {
	if !a.principal.Authorized() {
		return nil, ErrAccessDenied
	}

	if err := a.update(ctx, entityItemID, patch); err != nil {
		return nil, err
	}
	return a.Get(ctx, entityItemID)
}

// UpdateBatch applies per-item update rules across patches, dispatched
// concurrently. Patches without an EntityItemId are reported as unresolved
// rather than aborting the batch.
func (a *Accessor) UpdateBatch(ctx context.Context, patches []Item) (*BatchUpdateResult, error) {
	if !a.principal.Authorized() {
		return nil, ErrAccessDenied
	}

	type job struct {
		id    string
		patch Item
	}

	result := &BatchUpdateResult{}
	tenantID := a.effectiveTenant()
	var jobs []job
	for _, patch := range patches {
		id, _ := patch[attrEntityItemID].(string)
		if id == "" {
			result.Unresolved = append(result.Unresolved, patch)
			continue
		}
		jobs = append(jobs, job{id: id, patch: patch})

		applied := make(Item, len(patch)+2)
		for k, v := range patch {
			applied[k] = v
		}
		applied[attrEntityItemID] = id
		applied[attrTenantID] = tenantID
		applied[attrUpdatedAt] = a.timestamp()
		applied[attrUpdatedBy] = a.principal.UserID
		result.Items = append(result.Items, applied)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			if err := a.update(ctx, j.id, j.patch); err != nil {
				a.logger.Warn("batch update item failed",
					"entityItemId", j.id,
					"error", err,
				)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(j)
	}
	wg.Wait()

	return result, firstErr
}

// stampNew applies the create-side key and audit attributes to a copy of
// body. Incoming id, tenant, and creation audit values are discarded.
func (a *Accessor) stampNew(prefix string, body Item) Item {
	item := make(Item, len(body)+6)
	for k, v := range body {
		item[k] = v
	}
	delete(item, attrEntityItemID)
	delete(item, attrTenantID)
	delete(item, attrCreatedAt)

	item[attrCreatedAt] = a.timestamp()
	item[attrCreatedBy] = a.principal.UserID
	item[attrUpdatedAt] = ""
	item[attrUpdatedBy] = ""
	a.stampKey(item, a.effectiveTenant(), entityid.New(prefix))
	return item
}

func (a *Accessor) put(ctx context.Context, item Item) error {
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if _, err := a.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.cfg.Table.Name),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// update builds and executes the attribute-set expression for one patch:
// one "#name = :value" term per remaining top-level attribute, comma-joined,
// in sorted attribute order.
func (a *Accessor) update(ctx context.Context, entityItemID string, patch Item) error {
	body := make(Item, len(patch)+2)
	for k, v := range patch {
		body[k] = v
	}
	delete(body, attrEntityItemID)
	delete(body, attrTenantID)
	body[attrUpdatedAt] = a.timestamp()
	body[attrUpdatedBy] = a.principal.UserID

	attrs := make([]string, 0, len(body))
	for attr := range body {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	var expr string
	names := make(map[string]string, len(body))
	values := make(map[string]any, len(body))
	for _, attr := range attrs {
		nameToken := "#" + attr
		valueToken := ":" + attr
		if expr != "" {
			expr += ", "
		}
		expr += nameToken + " = " + valueToken
		names[nameToken] = attr
		values[valueToken] = body[attr]
	}

	av, err := attributevalue.MarshalMap(values)
	if err != nil {
		return fmt.Errorf("marshal update values: %w", err)
	}

	if _, err := a.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(a.cfg.Table.Name),
		Key:                       a.keyFor(a.effectiveTenant(), entityItemID),
		UpdateExpression:          aws.String("set " + expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: av,
		ReturnValues:              types.ReturnValueUpdatedNew,
	}); err != nil {
		return fmt.Errorf("update %s: %w", entityItemID, err)
	}
	return nil
}

func unmarshalItem(raw map[string]types.AttributeValue) (Item, error) {
	var item Item
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return item, nil
}
