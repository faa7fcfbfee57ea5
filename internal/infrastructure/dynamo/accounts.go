package dynamo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-marketplace-auth/internal/domain"
)

// Guard items share the accounts table. Their partition key is prefixed so
// they never collide with a ULID, and they carry no email/phone attribute so
// they stay out of the lookup indexes.
const (
	emailGuardPrefix = "EMAIL#"
	phoneGuardPrefix = "PHONE#"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
// PK: account_id. GSIs: email-index, phone-index.
type AccountRepo struct {
	client    API
	tableName string
}

func NewAccountRepo(client API, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

// Create writes the account and its uniqueness guards in one transaction.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	notExists := aws.String("attribute_not_exists(" + fieldAccountID + ")")
	writes := []types.TransactWriteItem{{
		Put: &types.Put{TableName: aws.String(r.tableName), Item: item, ConditionExpression: notExists},
	}}
	fields := []string{""}
	if e := a.EmailValue(); e != "" {
		writes = append(writes, r.guardPut(emailGuardPrefix+e, a.AccountID, notExists))
		fields = append(fields, "email")
	}
	if p := a.PhoneValue(); p != "" {
		writes = append(writes, r.guardPut(phoneGuardPrefix+p, a.AccountID, notExists))
		fields = append(fields, "phone")
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err == nil {
		return nil
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for i, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) != "ConditionalCheckFailed" || i >= len(fields) {
				continue
			}
			if fields[i] == "" {
				return fmt.Errorf("account %s exists: %w", a.AccountID, domain.ErrConflict)
			}
			return &domain.ConflictError{Field: fields[i]}
		}
	}
	return fmt.Errorf("create account: %w", err)
}

func (r *AccountRepo) guardPut(key, ownerID string, cond *string) types.TransactWriteItem {
	return types.TransactWriteItem{Put: &types.Put{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			fieldAccountID: &types.AttributeValueMemberS{Value: key},
			fieldOwnerID:   &types.AttributeValueMemberS{Value: ownerID},
		},
		ConditionExpression: cond,
	}}
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldAccountID, accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	if _, guard := out.Item[fieldOwnerID]; guard {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.queryGSI(ctx, indexEmail, fieldEmail, email)
}

func (r *AccountRepo) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.queryGSI(ctx, indexPhone, fieldPhone, phone)
}

func (r *AccountRepo) MarkVerified(ctx context.Context, accountID string, ch domain.Channel, at time.Time) error {
	var field string
	switch ch {
	case domain.ChannelEmail:
		field = fieldEmailVerifiedAt
	case domain.ChannelPhone:
		field = fieldPhoneVerifiedAt
	default:
		return fmt.Errorf("unknown channel %q: %w", ch, domain.ErrBadRequest)
	}
	at = at.UTC()
	return r.update(ctx, accountID, map[string]interface{}{field: at, fieldUpdatedAt: at})
}

func (r *AccountRepo) LinkGoogle(ctx context.Context, accountID, sub string) error {
	return r.update(ctx, accountID, map[string]interface{}{
		fieldGoogleSub: sub,
		fieldUpdatedAt: time.Now().UTC(),
	})
}

// update applies a SET expression to an existing account only.
func (r *AccountRepo) update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldAccountID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return err
}

// ScanPage returns a page of accounts, skipping guard items.
// cursor is a base64-encoded account_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
func (r *AccountRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("attribute_not_exists(#o)"),
		ExpressionAttributeNames: map[string]string{"#o": fieldOwnerID},
		Limit:                    aws.Int32(limit),
	}
	if cursor != "" {
		accountID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey(fieldAccountID, accountID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	accounts := []domain.Account{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &accounts); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey[fieldAccountID].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return accounts, nextCursor, nil
}

func encodeCursor(accountID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(accountID))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *AccountRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}
