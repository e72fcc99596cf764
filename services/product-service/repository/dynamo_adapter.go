package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	keyAttr       = "product_id"
	typeAttr      = "item_type"
	ownerAttr     = "owner_id"
	itemProduct   = "product"
	itemNameGuard = "name_guard"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoAdapter.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoAdapter is a DynamoDB-backed ProductRepo. Products and name guards
// share one table keyed by product_id; a guard item keyed name#<name> holds
// the owning product id and makes name uniqueness a conditional write.
type DynamoAdapter struct {
	client DynamoAPI
	table  string
}

func NewDynamoAdapter(client DynamoAPI, table string) *DynamoAdapter {
	return &DynamoAdapter{client: client, table: table}
}

func guardKey(name string) string { return "name#" + name }

func keyOf(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{keyAttr: &types.AttributeValueMemberS{Value: id}}
}

// encodeProduct stores the product under its JSON field names.
func encodeProduct(p *models.Product) (map[string]types.AttributeValue, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	delete(m, "_id")
	m[keyAttr] = p.ID.Hex()
	m[typeAttr] = itemProduct
	return attributevalue.MarshalMap(m)
}

func decodeProduct(item map[string]types.AttributeValue) (*models.Product, error) {
	var m map[string]interface{}
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	m["_id"] = m[keyAttr]
	delete(m, keyAttr)
	delete(m, typeAttr)

	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return &p, nil
}

func (d *DynamoAdapter) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	item, err := encodeProduct(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: d.guardPut(product.Name, product.ID.Hex())},
			{Put: &types.Put{
				TableName:           &d.table,
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(" + keyAttr + ")"),
			}},
		},
	})
	return translateDynamo(err, 0)
}

func (d *DynamoAdapter) guardPut(name, owner string) *types.Put {
	return &types.Put{
		TableName: &d.table,
		Item: map[string]types.AttributeValue{
			keyAttr:   &types.AttributeValueMemberS{Value: guardKey(name)},
			typeAttr:  &types.AttributeValueMemberS{Value: itemNameGuard},
			ownerAttr: &types.AttributeValueMemberS{Value: owner},
		},
		ConditionExpression: aws.String("attribute_not_exists(" + keyAttr + ")"),
	}
}

func (d *DynamoAdapter) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return d.get(ctx, id.Hex())
}

func (d *DynamoAdapter) get(ctx context.Context, key string) (*models.Product, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: keyOf(key), ConsistentRead: aws.Bool(true)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	if t, ok := out.Item[typeAttr].(*types.AttributeValueMemberS); !ok || t.Value != itemProduct {
		return nil, ErrNotFound
	}
	return decodeProduct(out.Item)
}

// FindOne resolves name lookups through the guard item and falls back to a
// filtered scan for any other field.
func (d *DynamoAdapter) FindOne(ctx context.Context, filter map[string]interface{}) (*models.Product, error) {
	if name, ok := filter[models.FieldName].(string); ok && len(filter) == 1 {
		out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: keyOf(guardKey(name)), ConsistentRead: aws.Bool(true)})
		if err != nil {
			return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
		}
		owner, ok := out.Item[ownerAttr].(*types.AttributeValueMemberS)
		if !ok {
			return nil, ErrNotFound
		}
		return d.get(ctx, owner.Value)
	}

	products, err := d.scan(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return products[0], nil
}

func (d *DynamoAdapter) FindAll(ctx context.Context) ([]*models.Product, error) {
	products, err := d.scan(ctx, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

// FindPaginated scans matching products and pages in memory. Price ordering
// ties break on id, matching the Mongo adapter.
func (d *DynamoAdapter) FindPaginated(ctx context.Context, q models.ProductQuery) ([]*models.Product, int64, error) {
	all, err := d.scan(ctx, nil)
	if err != nil {
		return nil, 0, err
	}

	matched := all[:0]
	for _, p := range all {
		if q.PriceMin != nil && p.PacketPrice < *q.PriceMin {
			continue
		}
		if q.PriceMax != nil && p.PacketPrice > *q.PriceMax {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		matched = append(matched, p)
	}

	desc := q.SortPrice < 0
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.PacketPrice != b.PacketPrice {
			if desc {
				return a.PacketPrice > b.PacketPrice
			}
			return a.PacketPrice < b.PacketPrice
		}
		return a.ID.Hex() < b.ID.Hex()
	})

	total := int64(len(matched))
	start := q.Skip
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return matched[start:end], total, nil
}

func (d *DynamoAdapter) scan(ctx context.Context, filter map[string]interface{}) ([]*models.Product, error) {
	expr := "#t = :t"
	names := map[string]string{"#t": typeAttr}
	values := map[string]types.AttributeValue{":t": &types.AttributeValueMemberS{Value: itemProduct}}

	i := 0
	for field, want := range filter {
		av, err := attributevalue.Marshal(want)
		if err != nil {
			return nil, fmt.Errorf("marshal filter %s: %w", field, err)
		}
		n, v := "#f"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		expr += " AND " + n + " = " + v
		names[n] = field
		values[v] = av
		i++
	}

	input := &dynamodb.ScanInput{
		TableName:                 &d.table,
		FilterExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}

	var products []*models.Product
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			p, err := decodeProduct(it)
			if err != nil {
				return nil, err
			}
			products = append(products, p)
		}
	}
	return products, nil
}

func (d *DynamoAdapter) UpdateByID(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.Product, error) {
	set := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	set["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

	update, names, values, err := setExpression(set)
	if err != nil {
		return nil, err
	}
	values[":t"] = &types.AttributeValueMemberS{Value: itemProduct}
	names["#type"] = typeAttr
	cond := aws.String("attribute_exists(" + keyAttr + ") AND #type = :t")

	newName, renaming := fields[models.FieldName].(string)
	if renaming {
		existing, err := d.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		renaming = existing.Name != newName
		if renaming {
			_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
				TransactItems: []types.TransactWriteItem{
					{Delete: &types.Delete{TableName: &d.table, Key: keyOf(guardKey(existing.Name))}},
					{Put: d.guardPut(newName, id.Hex())},
					{Update: &types.Update{
						TableName:                 &d.table,
						Key:                       keyOf(id.Hex()),
						UpdateExpression:          aws.String(update),
						ConditionExpression:       cond,
						ExpressionAttributeNames:  names,
						ExpressionAttributeValues: values,
					}},
				},
			})
			if err := translateDynamo(err, 1); err != nil {
				return nil, err
			}
			return d.FindByID(ctx, id)
		}
	}

	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.table,
		Key:                       keyOf(id.Hex()),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       cond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err := translateDynamo(err, noGuard); err != nil {
		return nil, err
	}
	return decodeProduct(out.Attributes)
}

func setExpression(set map[string]interface{}) (string, map[string]string, map[string]types.AttributeValue, error) {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	expr := "SET "
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	for i, k := range keys {
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		n, v := "#f"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		if i > 0 {
			expr += ", "
		}
		expr += n + " = " + v
		names[n] = k
		values[v] = av
	}
	return expr, names, values, nil
}

func (d *DynamoAdapter) IncrementStock(ctx context.Context, id primitive.ObjectID, delta float64) (*models.Product, error) {
	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 keyOf(id.Hex()),
		UpdateExpression:    aws.String("ADD #q :d SET #u = :u"),
		ConditionExpression: aws.String("attribute_exists(" + keyAttr + ") AND #type = :t"),
		ExpressionAttributeNames: map[string]string{
			"#q": models.FieldStockQuantity, "#u": "updatedAt", "#type": typeAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberN{Value: strconv.FormatFloat(delta, 'f', -1, 64)},
			":u": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
			":t": &types.AttributeValueMemberS{Value: itemProduct},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err := translateDynamo(err, noGuard); err != nil {
		return nil, err
	}
	return decodeProduct(out.Attributes)
}

func (d *DynamoAdapter) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	existing, err := d.FindByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           &d.table,
				Key:                 keyOf(id.Hex()),
				ConditionExpression: aws.String("attribute_exists(" + keyAttr + ")"),
			}},
			{Delete: &types.Delete{TableName: &d.table, Key: keyOf(guardKey(existing.Name))}},
		},
	})
	return translateDynamo(err, noGuard)
}

func (d *DynamoAdapter) DistinctCategories(ctx context.Context) ([]string, error) {
	products, err := d.scan(ctx, nil)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	categories := []string{}
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// EnsureIndexes creates the table when it does not exist. Uniqueness lives
// in the guard items, so no secondary index is needed.
func (d *DynamoAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &d.table})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", d.table, err)
	}

	_, err = d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   &d.table,
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttr), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", d.table, err)
	}
	return nil
}

const noGuard = -1

// translateDynamo maps a failed condition on the guard put at guardIndex to
// ErrDuplicateName and any other failed existence condition to ErrNotFound.
func translateDynamo(err error, guardIndex int) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrNotFound
	}
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if aws.ToString(reason.Code) != "ConditionalCheckFailed" {
				continue
			}
			if i == guardIndex {
				return fmt.Errorf("%w: %v", ErrDuplicateName, err)
			}
			return ErrNotFound
		}
	}
	return fmt.Errorf("dynamodb write failed: %w", err)
}
