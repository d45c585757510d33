package store

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/espalier/hierarchy"
)

// folderRecord is the DynamoDB shape of a folder. Children and items are
// string sets; DynamoDB rejects empty sets, so both attributes are absent
// when empty.
type folderRecord struct {
	ID       string   `dynamodbav:"id"`
	Owner    string   `dynamodbav:"owner"`
	Title    string   `dynamodbav:"title"`
	Children []string `dynamodbav:"children,stringset,omitempty"`
	Items    []string `dynamodbav:"items,stringset,omitempty"`
}

func marshalFolder(f *hierarchy.Folder) (map[string]types.AttributeValue, error) {
	rec := folderRecord{
		ID:    string(f.ID),
		Owner: string(f.Owner),
		Title: f.Title,
	}
	for _, c := range f.Children {
		rec.Children = append(rec.Children, string(c))
	}
	for _, i := range f.Items {
		rec.Items = append(rec.Items, string(i))
	}
	return attributevalue.MarshalMap(rec)
}

func unmarshalFolder(raw map[string]types.AttributeValue) (*hierarchy.Folder, error) {
	var rec folderRecord
	if err := attributevalue.UnmarshalMap(raw, &rec); err != nil {
		return nil, err
	}
	f := &hierarchy.Folder{
		ID:    hierarchy.FolderID(rec.ID),
		Owner: hierarchy.OwnerID(rec.Owner),
		Title: rec.Title,
	}
	for _, c := range rec.Children {
		f.Children = append(f.Children, hierarchy.FolderID(c))
	}
	for _, i := range rec.Items {
		f.Items = append(f.Items, hierarchy.ItemID(i))
	}
	return f, nil
}

func folderKey(id hierarchy.FolderID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: string(id)},
	}
}
