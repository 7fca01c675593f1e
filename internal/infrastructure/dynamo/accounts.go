package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/foreverweb/auth-api/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
// The partition key is the lowercased username.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

func (r *AccountRepo) Get(ctx context.Context, username string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       usernameKey(username),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account %q: %w", username, domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) Exists(ctx context.Context, username string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  usernameKey(username),
		ProjectionExpression: aws.String("username"),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// FindByEmail is a filtered table scan. A secondary email index would avoid
// this, but the scan keeps the table schema to a single key and is acceptable
// at this store's scale.
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("email = :e"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":e": &types.AttributeValueMemberS{Value: email},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		if len(out.Items) > 0 {
			var a domain.Account
			if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
				return nil, err
			}
			return &a, nil
		}
		if out.LastEvaluatedKey == nil {
			return nil, fmt.Errorf("no account for email: %w", domain.ErrNotFound)
		}
		startKey = out.LastEvaluatedKey
	}
}

// Create inserts the account only if the username is free. The conditional
// Put makes concurrent creates race-safe: exactly one wins, losers observe
// ErrConflict.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(username)"),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("username %q taken: %w", a.Username, domain.ErrConflict)
	}
	return err
}

// Update replaces the full record, conditional on the version the caller read.
// The version is bumped on success; a stale caller observes ErrConflict (or
// ErrNotFound when the record is gone) instead of silently overwriting.
func (r *AccountRepo) Update(ctx context.Context, a *domain.Account) error {
	readVersion := a.Version
	a.Version++
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		a.Version = readVersion
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(username) AND version = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", readVersion)},
		},
	})
	if isConditionalCheckFailed(err) {
		a.Version = readVersion
		ok, existsErr := r.Exists(ctx, a.Username)
		if existsErr == nil && !ok {
			return fmt.Errorf("account %q: %w", a.Username, domain.ErrNotFound)
		}
		return fmt.Errorf("stale account version for %q: %w", a.Username, domain.ErrConflict)
	}
	if err != nil {
		a.Version = readVersion
	}
	return err
}

func usernameKey(username string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"username": &types.AttributeValueMemberS{Value: username},
	}
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
