package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ledgewood/tenantstore/identity"
	"github.com/ledgewood/tenantstore/store"
)

// mockClient implements store.DynamoDBAPI with per-call hooks. Every input
// is recorded for assertions; unset hooks return empty outputs.
type mockClient struct {
	queryFn  func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	getFn    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putFn    func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateFn func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	deleteFn func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)

	mu      sync.Mutex
	queries []*dynamodb.QueryInput
	gets    []*dynamodb.GetItemInput
	puts    []*dynamodb.PutItemInput
	updates []*dynamodb.UpdateItemInput
	deletes []*dynamodb.DeleteItemInput
}

func (m *mockClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	m.queries = append(m.queries, params)
	m.mu.Unlock()
	if m.queryFn != nil {
		return m.queryFn(params)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (m *mockClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	m.gets = append(m.gets, params)
	m.mu.Unlock()
	if m.getFn != nil {
		return m.getFn(params)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	m.puts = append(m.puts, params)
	m.mu.Unlock()
	if m.putFn != nil {
		return m.putFn(params)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockClient) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	m.updates = append(m.updates, params)
	m.mu.Unlock()
	if m.updateFn != nil {
		return m.updateFn(params)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	m.deletes = append(m.deletes, params)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(params)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func testPrincipal() identity.Principal {
	return identity.Principal{
		TenantID: "tenant-1",
		UserID:   "User:u1",
		Claims: &identity.Claims{
			AccessKeyID:     "AKID",
			SecretAccessKey: "SECRET",
			SessionToken:    "TOKEN",
		},
	}
}

func testConfig() store.Config {
	return store.Config{
		Table:               store.TableDefinition{Name: "entities"},
		SystemResourceTable: "system-resources",
		SystemAdminTenantID: "system-admin",
	}
}

func marshalItem(t *testing.T, item store.Item) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		t.Fatalf("marshal item: %v", err)
	}
	return av
}

// pagedQueryFn returns a query hook that serves the given pages in order,
// chaining them with continuation keys.
func pagedQueryFn(t *testing.T, pages ...[]store.Item) func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	t.Helper()
	page := 0
	return func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		if page >= len(pages) {
			return &dynamodb.QueryOutput{}, nil
		}
		out := &dynamodb.QueryOutput{}
		for _, item := range pages[page] {
			out.Items = append(out.Items, marshalItem(t, item))
		}
		page++
		if page < len(pages) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				"EntityItemId": &types.AttributeValueMemberS{Value: "cursor"},
			}
		}
		return out, nil
	}
}

func queryValue(t *testing.T, input *dynamodb.QueryInput, key string) string {
	t.Helper()
	av, ok := input.ExpressionAttributeValues[key]
	if !ok {
		t.Fatalf("expected query value for %s", key)
	}
	return av.(*types.AttributeValueMemberS).Value
}
