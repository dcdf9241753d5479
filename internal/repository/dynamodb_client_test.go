package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"influencer-agent/internal/domain"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	queryOut     *dynamodb.QueryOutput
	queryErr     error
	txErr        error
	lastGetInput *dynamodb.GetItemInput
	lastQueryIn  *dynamodb.QueryInput
	lastTxInput  *dynamodb.TransactWriteItemsInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTxInput = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "posts-table")
	require.NoError(t, err)
	return c
}

func samplePost(id string, ts time.Time) domain.Post {
	return domain.Post{
		ID:          id,
		GeneratedAt: domain.Timestamp{Time: ts},
		Parameters:  &domain.Parameters{Niche: "fitness", Audience: "gym-goers", Tone: "motivational", Platform: "Twitter"},
		Topic:       &domain.Topic{Title: "Lift Smarter", Hook: "Stop guessing."},
		Content:     &domain.ContentBody{Text: "Train with a plan.", Platform: "Twitter", CharacterCount: 18, WithinLimit: true},
		Hashtags:    &domain.HashtagSet{Primary: []string{"#lift", "#smarter"}, TotalPrimary: 2},
		Ready:       true,
	}
}

func bodyItem(t *testing.T, post domain.Post) map[string]types.AttributeValue {
	t.Helper()
	body, err := json.Marshal(post)
	require.NoError(t, err)
	return map[string]types.AttributeValue{
		"PK":   &types.AttributeValueMemberS{Value: postPK(post.ID)},
		"SK":   &types.AttributeValueMemberS{Value: skRecord},
		"body": &types.AttributeValueMemberS{Value: string(body)},
	}
}

func sAttr(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q", key)
	return v.Value
}

func TestArchivePost_WritesRecordAndFeedItem(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	ts := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.ArchivePost(context.Background(), samplePost("ai_influencer_1", ts)))
	require.NotNil(t, db.lastTxInput)
	require.Len(t, db.lastTxInput.TransactItems, 2)

	record := db.lastTxInput.TransactItems[0].Put
	require.Equal(t, "posts-table", *record.TableName)
	require.Equal(t, "attribute_not_exists(PK) AND attribute_not_exists(SK)", *record.ConditionExpression)
	require.Equal(t, "POST#ai_influencer_1", sAttr(t, record.Item, "PK"))
	require.Equal(t, skRecord, sAttr(t, record.Item, "SK"))
	require.Equal(t, "Lift Smarter", sAttr(t, record.Item, "title"))
	require.Equal(t, "fitness", sAttr(t, record.Item, "niche"))
	require.Contains(t, sAttr(t, record.Item, "body"), `"post_id":"ai_influencer_1"`)

	feed := db.lastTxInput.TransactItems[1].Put
	require.Nil(t, feed.ConditionExpression)
	require.Equal(t, "FEED#twitter", sAttr(t, feed.Item, "PK"))
	require.Equal(t, "TS#2026-02-27T12:00:00Z#ai_influencer_1", sAttr(t, feed.Item, "SK"))
}

func TestArchivePost_MissingID(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	err := c.ArchivePost(context.Background(), domain.Post{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestArchivePost_DynamoError(t *testing.T) {
	db := &fakeDynamo{txErr: errors.New("transaction canceled")}
	c := mustNewClient(t, db)
	err := c.ArchivePost(context.Background(), samplePost("p1", time.Now()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ArchivePost")
}

func TestGetPost_HappyPath(t *testing.T) {
	ts := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
	want := samplePost("p1", ts)
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: bodyItem(t, want)}}
	c := mustNewClient(t, db)

	got, ok, err := c.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "p1", got.ID)
	require.True(t, ts.Equal(got.GeneratedAt.Time))
	require.Equal(t, want.Topic, got.Topic)
	require.Equal(t, "POST#p1", sAttr(t, db.lastGetInput.Key, "PK"))
	require.Equal(t, skRecord, sAttr(t, db.lastGetInput.Key, "SK"))
}

func TestGetPost_Missing(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	_, ok, err := c.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetPost_Errors(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getErr: errors.New("boom")})
	_, _, err := c.GetPost(context.Background(), "p1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "GetPost")

	c = mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "POST#p1"},
	}}})
	_, _, err = c.GetPost(context.Background(), "p1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "body")

	c = mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"body": &types.AttributeValueMemberN{Value: "1"},
	}}})
	_, _, err = c.GetPost(context.Background(), "p1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a string")
}

func TestRecentPosts_QueriesFeedNewestFirst(t *testing.T) {
	newer := samplePost("p2", time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC))
	older := samplePost("p1", time.Date(2026, 2, 27, 11, 0, 0, 0, time.UTC))
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		bodyItem(t, newer), bodyItem(t, older),
	}}}
	c := mustNewClient(t, db)

	posts, err := c.RecentPosts(context.Background(), "Twitter", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "p2", posts[0].ID)
	require.Equal(t, "p1", posts[1].ID)

	require.Equal(t, "PK = :pk AND begins_with(SK, :prefix)", *db.lastQueryIn.KeyConditionExpression)
	require.False(t, *db.lastQueryIn.ScanIndexForward)
	require.Equal(t, int32(10), *db.lastQueryIn.Limit)
	require.Equal(t, "FEED#twitter", sAttr(t, db.lastQueryIn.ExpressionAttributeValues, ":pk"))
}

func TestRecentPosts_Errors(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{queryErr: errors.New("ResourceNotFoundException")})
	_, err := c.RecentPosts(context.Background(), "twitter", 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "RecentPosts")

	c = mustNewClient(t, &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		{"body": &types.AttributeValueMemberS{Value: "{broken"}},
	}}})
	_, err = c.RecentPosts(context.Background(), "twitter", 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode body")
}

func TestLocation(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	require.Equal(t, "dynamodb://posts-table/POST#p1", c.Location("p1"))
}

func TestKeys(t *testing.T) {
	require.Equal(t, "POST#abc", postPK("abc"))
	require.Equal(t, "FEED#linkedin", feedPK(" LinkedIn "))
	ts := time.Date(2026, 2, 25, 10, 0, 0, 0, time.FixedZone("X", 3600))
	require.Equal(t, "TS#2026-02-25T09:00:00Z#abc", feedSK(ts, "abc"))
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil, "test-table")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestNew_EmptyTableName(t *testing.T) {
	_, err := New(&fakeDynamo{}, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}
