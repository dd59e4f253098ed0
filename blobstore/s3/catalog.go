package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrConcurrentCommit is returned when two publishers race to commit the
// same catalog version.
var ErrConcurrentCommit = errors.New("concurrent snapshot commit detected")

// ErrNoSnapshot is returned when the catalog holds no committed snapshot.
var ErrNoSnapshot = errors.New("no snapshot committed")

// DDBClient is the subset of the DynamoDB API the catalog uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Catalog tracks which snapshot blob is the current one for a grid.
//
// S3 writes are atomic per object but offer no compare-and-swap, so the
// pointer to the latest snapshot lives in DynamoDB. Each commit writes a new
// monotonically increasing version with a conditional put, which makes
// concurrent publishers fail loudly instead of silently overwriting each
// other.
//
// Table schema:
//   - Partition key: grid_id (string)
//   - Sort key: version (number)
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name pointgrid-snapshots \
//	  --attribute-definitions AttributeName=grid_id,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=grid_id,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Catalog struct {
	client DDBClient
	table  string
	gridID string
}

// NewCatalog creates a snapshot catalog for the given grid.
func NewCatalog(client DDBClient, table, gridID string) *Catalog {
	return &Catalog{
		client: client,
		table:  table,
		gridID: gridID,
	}
}

// Latest returns the blob name and version of the most recently committed
// snapshot. Returns ErrNoSnapshot if nothing has been committed.
func (c *Catalog) Latest(ctx context.Context) (string, uint64, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("grid_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: c.gridID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return "", 0, fmt.Errorf("query snapshot catalog: %w", err)
	}

	if len(resp.Items) == 0 {
		return "", 0, ErrNoSnapshot
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return "", 0, errors.New("invalid version attribute in catalog item")
	}
	blobAttr, ok := item["blob_name"].(*types.AttributeValueMemberS)
	if !ok {
		return "", 0, errors.New("invalid blob_name attribute in catalog item")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parse catalog version: %w", err)
	}

	return blobAttr.Value, version, nil
}

// Commit records blobName as the next snapshot version. The conditional put
// fails with ErrConcurrentCommit if another publisher claimed the version
// first; callers should re-read Latest and retry.
func (c *Catalog) Commit(ctx context.Context, blobName string) (uint64, error) {
	_, current, err := c.Latest(ctx)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return 0, err
	}

	next := current + 1

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]types.AttributeValue{
			"grid_id":   &types.AttributeValueMemberS{Value: c.gridID},
			"version":   &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"blob_name": &types.AttributeValueMemberS{Value: blobName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentCommit
		}
		return 0, fmt.Errorf("commit snapshot version: %w", err)
	}

	return next, nil
}

// Remove deletes a catalog entry. Used to prune superseded snapshots after
// their blobs are deleted.
func (c *Catalog) Remove(ctx context.Context, version uint64) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"grid_id": &types.AttributeValueMemberS{Value: c.gridID},
			"version": &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
		},
	})
	return err
}
