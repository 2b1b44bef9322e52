package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dining-concierge/internal/domain"
)

const keyAttr = "id"

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Client wraps the restaurant records table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// GetRestaurant point-reads one restaurant record. A missing record is
// reported with ok=false and no error.
func (c *Client) GetRestaurant(ctx context.Context, id string) (domain.Restaurant, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Restaurant{}, false, errors.New("repository: GetRestaurant: id is required")
	}
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			keyAttr: &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return domain.Restaurant{}, false, fmt.Errorf("repository: GetRestaurant get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Restaurant{}, false, nil
	}
	r, err := itemToRestaurant(out.Item)
	if err != nil {
		return domain.Restaurant{}, false, fmt.Errorf("repository: GetRestaurant decode %q: %w", id, err)
	}
	return r, true, nil
}

// itemToRestaurant converts a DynamoDB attribute map to a Restaurant. Only
// the key is mandatory; display fields may be absent.
func itemToRestaurant(item map[string]types.AttributeValue) (domain.Restaurant, error) {
	id, err := strAttr(item, keyAttr)
	if err != nil {
		return domain.Restaurant{}, err
	}
	r := domain.Restaurant{ID: id}
	r.Name, _ = strAttr(item, "name")
	r.Address, _ = strAttr(item, "address")
	r.City, _ = strAttr(item, "city")
	r.Cuisine, _ = strAttr(item, "cuisine")
	r.ZipCode, _ = strAttr(item, "zip_code")

	if _, ok := item["rating"]; ok {
		if r.Rating, err = floatAttr(item, "rating"); err != nil {
			return domain.Restaurant{}, err
		}
	}
	if _, ok := item["review_count"]; ok {
		if r.ReviewCount, err = intAttr(item, "review_count"); err != nil {
			return domain.Restaurant{}, err
		}
	}
	return r, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func numAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a number", key)
	}
	return n.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	raw, err := numAttr(item, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func floatAttr(item map[string]types.AttributeValue, key string) (float64, error) {
	raw, err := numAttr(item, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
