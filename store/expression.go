package store

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// keyCondition is the fixed key condition every listing query runs under:
// one tenant partition, one entity-type prefix range.
const keyCondition = "TenantId = :tenantId and begins_with(EntityItemId, :entityPrefix)"

// matchForm selects the comparison a filter clause compiles to.
type matchForm int

const (
	matchEquals matchForm = iota
	matchContains
)

// compiledQuery is the pair of native descriptors produced for one request.
// Both variants are always built so the post-filter pass operates uniformly
// over either result shape; input selects the one to execute.
type compiledQuery struct {
	all        *dynamodb.QueryInput
	projected  *dynamodb.QueryInput
	projection bool
	postFilter map[string]FilterValue
}

func (c *compiledQuery) input() *dynamodb.QueryInput {
	if c.projection {
		return c.projected
	}
	return c.all
}

// opPicker pairs filter fields with the request's logical-operator list.
// The list is reversed once up front; scalar clause boundaries consume it
// through an index that starts at the list length and decrements once per
// field, while list-valued clauses index it by element position with the
// first reversed element as fallback. Operator-to-field alignment is
// positional and drifts by one field per list-valued filter, whatever the
// list length. Out-of-range lookups resolve to AND.
type opPicker struct {
	ops []LogicalOp
	k   int
}

func newOpPicker(ops []LogicalOp) *opPicker {
	if len(ops) == 0 {
		ops = []LogicalOp{OpAnd}
	}
	rev := make([]LogicalOp, len(ops))
	for i, op := range ops {
		rev[len(ops)-1-i] = op
	}
	return &opPicker{ops: rev, k: len(rev)}
}

// fieldOp returns the operator joining the current field's clause onto the
// accumulated expression.
func (p *opPicker) fieldOp() LogicalOp {
	if p.k >= 0 && p.k < len(p.ops) {
		return p.ops[p.k]
	}
	return OpAnd
}

// elementOp returns the operator joining list element l onto the clause chain.
func (p *opPicker) elementOp(l int) LogicalOp {
	if l < len(p.ops) {
		return p.ops[l]
	}
	return p.ops[0]
}

// next marks one field as processed.
func (p *opPicker) next() { p.k-- }

// splitPostFilters partitions a filter map: keys starting with "_" are
// removed and returned separately, leading underscore stripped, for the
// in-memory pass after reference resolution.
func splitPostFilters(filters map[string]FilterValue) (native, post map[string]FilterValue) {
	native = make(map[string]FilterValue, len(filters))
	post = map[string]FilterValue{}
	for k, v := range filters {
		if strings.HasPrefix(k, "_") {
			post[strings.TrimPrefix(k, "_")] = v
			continue
		}
		native[k] = v
	}
	return native, post
}

// compileQuery translates a generic Query into its native descriptors.
// Filter fields compile in sorted key order so placeholder numbering is
// deterministic.
func compileQuery(table, tenantID string, q Query, form matchForm) *compiledQuery {
	native, post := splitPostFilters(q.Filters)

	values := map[string]types.AttributeValue{
		":tenantId":     &types.AttributeValueMemberS{Value: tenantID},
		":entityPrefix": &types.AttributeValueMemberS{Value: q.Prefix + ":"},
	}
	names := map[string]string{}

	keys := make([]string, 0, len(native))
	for k := range native {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	picker := newOpPicker(q.Operators)
	var filterExpr string
	i := 1

	for _, attName := range keys {
		i++
		value := native[attName]
		valuePlaceholder := ":attValue" + strconv.Itoa(i)

		var namePlaceholder string
		for j, seg := range strings.Split(attName, ".") {
			key := "#attName" + strconv.Itoa(j+i)
			if j > 0 {
				key = "#subAttName" + strconv.Itoa(j+i)
				namePlaceholder += "."
			}
			namePlaceholder += key
			names[key] = seg
		}

		switch {
		case value.IsEmpty():
			// Exact-match-on-empty always compiles to equality, AND-joined.
			filterExpr = joinClause(filterExpr, OpAnd, namePlaceholder+" = "+valuePlaceholder)
			values[valuePlaceholder] = &types.AttributeValueMemberS{Value: ""}
		case value.isList:
			for l, v := range value.list {
				ph := ":attValue" + strconv.Itoa(i)
				i++
				filterExpr = joinClause(filterExpr, picker.elementOp(l), clause(form, namePlaceholder, ph))
				values[ph] = &types.AttributeValueMemberS{Value: v}
			}
		default:
			filterExpr = joinClause(filterExpr, picker.fieldOp(), clause(form, namePlaceholder, valuePlaceholder))
			values[valuePlaceholder] = &types.AttributeValueMemberS{Value: value.scalar}
		}
		picker.next()
	}

	if q.Parent != nil {
		if filterExpr != "" {
			filterExpr = "(" + filterExpr + ") AND "
		}
		filterExpr += q.Parent.Attribute + " = :parentAttValue"
		values[":parentAttValue"] = &types.AttributeValueMemberS{Value: q.Parent.Value}
	}

	all := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeValues: values,
		Select:                    types.SelectAllAttributes,
		ScanIndexForward:          aws.Bool(true),
	}
	projected := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeValues: values,
		ProjectionExpression:      aws.String(strings.Join(q.Projection, ", ")),
		ScanIndexForward:          aws.Bool(true),
	}
	if len(names) > 0 {
		all.ExpressionAttributeNames = names
		projected.ExpressionAttributeNames = names
	}
	if filterExpr != "" {
		all.FilterExpression = aws.String(filterExpr)
		projected.FilterExpression = aws.String(filterExpr)
	}

	return &compiledQuery{
		all:        all,
		projected:  projected,
		projection: len(q.Projection) > 0,
		postFilter: post,
	}
}

func clause(form matchForm, name, value string) string {
	if form == matchContains {
		return "contains(" + name + ", " + value + ")"
	}
	return name + " = " + value
}

func joinClause(expr string, op LogicalOp, next string) string {
	if expr == "" {
		return next
	}
	return expr + " " + string(op) + " " + next
}
