// Package store implements the hierarchy storage boundary on DynamoDB.
//
// Folder records live in a single table keyed on "id", with a global
// secondary index on "owner" for forest queries. The store provides
// per-document atomicity only: each field mutation is a single UpdateItem,
// and the bulk delete is a sequence of BatchWriteItem calls with no
// transactional envelope. Referential integrity is the hierarchy service's
// job, not this package's.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/espalier/hierarchy"
)

// batchWriteMax is the DynamoDB limit on write requests per BatchWriteItem.
const batchWriteMax = 25

// maxBatchRetries bounds retries of unprocessed batch delete requests.
const maxBatchRetries = 5

// Store implements hierarchy.Store on DynamoDB.
type Store struct {
	client *dynamodb.Client
	config Config
}

// New creates a new Store instance.
func New(client *dynamodb.Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

var _ hierarchy.Store = (*Store)(nil)

// Create stores a new folder record, failing if the id is already taken.
func (s *Store) Create(ctx context.Context, f *hierarchy.Folder) error {
	item, err := marshalFolder(f)
	if err != nil {
		return fmt.Errorf("marshal folder: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return hierarchy.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindOne retrieves a folder record by id.
func (s *Store) FindOne(ctx context.Context, id hierarchy.FolderID) (*hierarchy.Folder, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       folderKey(id),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, hierarchy.ErrNotFound
	}
	return unmarshalFolder(result.Item)
}

// UpdateOne atomically applies a single field mutation to the record for id.
// Returns hierarchy.ErrNoMatch if the record does not exist.
func (s *Store) UpdateOne(ctx context.Context, id hierarchy.FolderID, m hierarchy.Mutation) error {
	expr, names, values, err := buildMutation(m)
	if err != nil {
		return err
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       folderKey(id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return hierarchy.ErrNoMatch
		}
		return err
	}
	return nil
}

// buildMutation compiles a field mutation to a DynamoDB update expression.
// Set mutations use ADD/DELETE on string sets, which are idempotent the way
// the hierarchy contract requires. Attribute names go through placeholders
// throughout: "items" and "title" are DynamoDB reserved words.
func buildMutation(m hierarchy.Mutation) (string, map[string]string, map[string]types.AttributeValue, error) {
	switch m.Op {
	case hierarchy.MutateAddChild:
		return "ADD #children :v",
			map[string]string{"#children": "children"},
			setValue(string(m.Child)), nil
	case hierarchy.MutateRemoveChild:
		return "DELETE #children :v",
			map[string]string{"#children": "children"},
			setValue(string(m.Child)), nil
	case hierarchy.MutateAddItem:
		return "ADD #items :v",
			map[string]string{"#items": "items"},
			setValue(string(m.Item)), nil
	case hierarchy.MutateRemoveItem:
		return "DELETE #items :v",
			map[string]string{"#items": "items"},
			setValue(string(m.Item)), nil
	case hierarchy.MutateSetTitle:
		return "SET #title = :v",
			map[string]string{"#title": "title"},
			map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: m.Title},
			}, nil
	default:
		return "", nil, nil, fmt.Errorf("unknown mutation op %d", m.Op)
	}
}

func setValue(member string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":v": &types.AttributeValueMemberSS{Value: []string{member}},
	}
}

// DeleteMany removes folder records in batches, retrying unprocessed
// requests with backoff. The returned count is the number of delete requests
// DynamoDB accepted; absent ids are deleted without complaint, matching the
// hierarchy contract.
func (s *Store) DeleteMany(ctx context.Context, ids []hierarchy.FolderID) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += batchWriteMax {
		end := min(start+batchWriteMax, len(ids))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range ids[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: folderKey(id)},
			})
		}

		for attempt := 0; len(requests) > 0; attempt++ {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					s.config.TableName: requests,
				},
			})
			if err != nil {
				return deleted, err
			}

			unprocessed := out.UnprocessedItems[s.config.TableName]
			deleted += len(requests) - len(unprocessed)
			requests = unprocessed
			if len(requests) == 0 {
				break
			}
			if attempt >= maxBatchRetries {
				return deleted, fmt.Errorf("batch delete: %d requests unprocessed after %d attempts",
					len(requests), attempt+1)
			}
			select {
			case <-ctx.Done():
				return deleted, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
			}
		}
	}
	return deleted, nil
}

// FindByOwner returns every folder record owned by owner, via the owner
// index.
func (s *Store) FindByOwner(ctx context.Context, owner hierarchy.OwnerID) ([]*hierarchy.Folder, error) {
	var folders []*hierarchy.Folder

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.TableName),
		IndexName:              aws.String(s.config.OwnerIndex),
		KeyConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: string(owner)},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			f, err := unmarshalFolder(raw)
			if err != nil {
				return nil, err
			}
			folders = append(folders, f)
		}
	}
	return folders, nil
}

// FindByItem returns the folder whose items set contains item. The lookup is
// a filtered scan: item membership is derived state with no index of its
// own, mirroring the scan-based model the hierarchy assumes.
func (s *Store) FindByItem(ctx context.Context, item hierarchy.ItemID) (*hierarchy.Folder, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.config.TableName),
		FilterExpression: aws.String("contains(#items, :item)"),
		ExpressionAttributeNames: map[string]string{
			"#items": "items",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":item": &types.AttributeValueMemberS{Value: string(item)},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(page.Items) > 0 {
			return unmarshalFolder(page.Items[0])
		}
	}
	return nil, hierarchy.ErrNotFound
}
