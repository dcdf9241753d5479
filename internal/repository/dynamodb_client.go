package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"influencer-agent/internal/domain"
)

const (
	skRecord     = "RECORD"
	skPrefixFeed = "TS#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client archives generated posts in a DynamoDB table so that every instance
// can read them back, whatever its local disk holds.
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

// Location returns the archive address of a post, used as its index location.
func (c *Client) Location(postID string) string {
	return "dynamodb://" + c.tableName + "/" + postPK(postID)
}

// postPK returns the partition key of a post record.
func postPK(postID string) string {
	return "POST#" + postID
}

// feedPK returns the partition key of a platform feed.
func feedPK(platform string) string {
	return "FEED#" + strings.ToLower(strings.TrimSpace(platform))
}

// feedSK orders feed items by generation time, then id.
func feedSK(ts time.Time, postID string) string {
	return skPrefixFeed + ts.UTC().Format(time.RFC3339Nano) + "#" + postID
}

// ArchivePost writes the post record and its platform feed entry in one
// transaction. A post id that already exists is rejected.
func (c *Client) ArchivePost(ctx context.Context, post domain.Post) error {
	if post.ID == "" {
		return errors.New("repository: ArchivePost: post id is required")
	}
	body, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("repository: ArchivePost: encode: %w", err)
	}
	platform := ""
	if post.Parameters != nil {
		platform = post.Parameters.Platform
	}

	_, err = c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(c.tableName),
					Item:                postItem(postPK(post.ID), skRecord, post, body),
					ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(c.tableName),
					Item:      postItem(feedPK(platform), feedSK(post.GeneratedAt.Time, post.ID), post, body),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: ArchivePost: %w", err)
	}
	return nil
}

// GetPost reads one archived post. The bool is false when no record exists.
func (c *Client) GetPost(ctx context.Context, postID string) (domain.Post, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: postPK(postID)},
			"SK": &types.AttributeValueMemberS{Value: skRecord},
		},
	})
	if err != nil {
		return domain.Post{}, false, fmt.Errorf("repository: GetPost get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Post{}, false, nil
	}
	post, err := itemToPost(out.Item)
	if err != nil {
		return domain.Post{}, false, fmt.Errorf("repository: GetPost unmarshal: %w", err)
	}
	return post, true, nil
}

// RecentPosts returns up to limit posts of a platform, newest first.
func (c *Client) RecentPosts(ctx context.Context, platform string, limit int) ([]domain.Post, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: feedPK(platform)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixFeed},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: RecentPosts query: %w", err)
	}

	posts := make([]domain.Post, 0, len(out.Items))
	for _, item := range out.Items {
		post, err := itemToPost(item)
		if err != nil {
			return nil, fmt.Errorf("repository: RecentPosts unmarshal: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func postItem(pk, sk string, post domain.Post, body []byte) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: pk},
		"SK":          &types.AttributeValueMemberS{Value: sk},
		"postId":      &types.AttributeValueMemberS{Value: post.ID},
		"generatedAt": &types.AttributeValueMemberS{Value: post.GeneratedAt.UTC().Format(time.RFC3339Nano)},
		"body":        &types.AttributeValueMemberS{Value: string(body)},
	}
	if p := post.Parameters; p != nil {
		item["platform"] = &types.AttributeValueMemberS{Value: p.Platform}
		item["niche"] = &types.AttributeValueMemberS{Value: p.Niche}
	}
	if t := post.Topic; t != nil {
		item["title"] = &types.AttributeValueMemberS{Value: t.Title}
	}
	return item
}

// itemToPost decodes the body attribute of an archive item.
func itemToPost(item map[string]types.AttributeValue) (domain.Post, error) {
	body, err := strAttr(item, "body")
	if err != nil {
		return domain.Post{}, err
	}
	var post domain.Post
	if err := json.Unmarshal([]byte(body), &post); err != nil {
		return domain.Post{}, fmt.Errorf("repository: decode body: %w", err)
	}
	return post, nil
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
