package dynamo

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/staff-directory-api/internal/domain"
)

// StaffRepo provides typed DynamoDB operations for the staff table.
type StaffRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewStaffRepo(client *dynamodb.Client, tableName string) *StaffRepo {
	return &StaffRepo{client: client, tableName: tableName}
}

func (r *StaffRepo) Put(ctx context.Context, m *domain.StaffMember) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal staff member: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("#e = :v"),
		ExpressionAttributeNames:  map[string]string{"#e": "email"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("staff member not found: %w", domain.ErrNotFound)
	}
	var m domain.StaffMember
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *StaffRepo) Update(ctx context.Context, staffID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("staff_id", staffID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// ScanPage returns a page of staff members. status narrows to a single
// account status, query matches a case-insensitive substring of name, email
// or role. cursor is a base64-encoded staff_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
//
// The status filter runs server-side; the substring match runs on the
// fetched page because contains() in a filter expression compares
// case-sensitively. A filtered page can therefore come back shorter than
// limit, or empty with a non-empty next cursor.
func (r *StaffRepo) ScanPage(ctx context.Context, limit int32, cursor, status, query string) ([]domain.StaffMember, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}

	if status != "" {
		input.FilterExpression = aws.String("#st = :status")
		input.ExpressionAttributeNames = map[string]string{"#st": "status"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		}
	}

	if cursor != "" {
		staffID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("staff_id", staffID)
	}

	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var members []domain.StaffMember
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &members); err != nil {
		return nil, "", err
	}
	members = filterByQuery(members, query)
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["staff_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return members, nextCursor, nil
}

// filterByQuery keeps members whose name, email or role contains query,
// compared case-insensitively. An empty query keeps everything.
func filterByQuery(members []domain.StaffMember, query string) []domain.StaffMember {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return members
	}
	kept := members[:0]
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Email), q) ||
			strings.Contains(strings.ToLower(m.Role), q) {
			kept = append(kept, m)
		}
	}
	return kept
}

func encodeCursor(staffID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(staffID))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
