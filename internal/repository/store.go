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

	"leadgen-agent/internal/domain"
)

const (
	pkPrefixLead    = "LEAD#"
	pkPrefixForm    = "FORM#"
	pkPrefixUser    = "USER#"
	pkPrefixContent = "CONTENT#"
	skMeta          = "META#"

	// leadFormEmailIndex serves the quota count: hash formId, range email.
	leadFormEmailIndex = "form-email-index"
	// formOwnerIndex serves per-owner form listing: hash ownerId.
	formOwnerIndex = "owner-index"
)

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store wraps the single DynamoDB table holding leads, forms, users and
// content entries.
type Store struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new Store.
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

func leadPK(id string) string     { return pkPrefixLead + id }
func formPK(id string) string     { return pkPrefixForm + id }
func userPK(id string) string     { return pkPrefixUser + id }
func contentPK(key string) string { return pkPrefixContent + key }

func metaKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: skMeta},
	}
}

// CountLeads returns the number of leads with exactly this (formID, email)
// pair, via a COUNT query on the form-email index.
func (s *Store) CountLeads(ctx context.Context, formID, email string) (int, error) {
	count := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(leadFormEmailIndex),
			KeyConditionExpression: aws.String("formId = :f AND email = :e"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":f": &types.AttributeValueMemberS{Value: formID},
				":e": &types.AttributeValueMemberS{Value: email},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("repository: CountLeads query: %w", err)
		}
		count += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return count, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// CreateLead writes a new lead record, refusing to overwrite an existing id.
func (s *Store) CreateLead(ctx context.Context, lead domain.Lead) error {
	if strings.TrimSpace(lead.ID) == "" {
		return errors.New("repository: CreateLead: lead id is required")
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                leadItem(lead),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: CreateLead: %w", err)
	}
	return nil
}

// GetLead fetches a lead by id. The second return reports existence.
func (s *Store) GetLead(ctx context.Context, leadID string) (domain.Lead, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       metaKey(leadPK(leadID)),
	})
	if err != nil {
		return domain.Lead{}, false, fmt.Errorf("repository: GetLead: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Lead{}, false, nil
	}
	lead, err := itemToLead(out.Item)
	if err != nil {
		return domain.Lead{}, false, fmt.Errorf("repository: GetLead decode: %w", err)
	}
	return lead, true, nil
}

// UpdateLeadResult attaches a generated result to the lead and flips its
// status to processed. Plain update-by-id, no optimistic-concurrency check.
func (s *Store) UpdateLeadResult(ctx context.Context, leadID, resultText, resultType string, apartmentSize int) error {
	if strings.TrimSpace(leadID) == "" {
		return errors.New("repository: UpdateLeadResult: lead id is required")
	}
	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              metaKey(leadPK(leadID)),
		UpdateExpression: aws.String("SET resultText = :t, resultType = :rt, apartmentSize = :a, #status = :s"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":  &types.AttributeValueMemberS{Value: resultText},
			":rt": &types.AttributeValueMemberS{Value: resultType},
			":a":  &types.AttributeValueMemberN{Value: strconv.Itoa(apartmentSize)},
			":s":  &types.AttributeValueMemberS{Value: domain.LeadStatusProcessed},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: UpdateLeadResult: %w", err)
	}
	return nil
}

// GetForm fetches a form by id. The second return reports existence.
func (s *Store) GetForm(ctx context.Context, formID string) (domain.Form, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       metaKey(formPK(formID)),
	})
	if err != nil {
		return domain.Form{}, false, fmt.Errorf("repository: GetForm: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Form{}, false, nil
	}
	form, err := itemToForm(out.Item)
	if err != nil {
		return domain.Form{}, false, fmt.Errorf("repository: GetForm decode: %w", err)
	}
	return form, true, nil
}

// IncrementLeadCount bumps the form's cached lead counter by one.
func (s *Store) IncrementLeadCount(ctx context.Context, formID string) error {
	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              metaKey(formPK(formID)),
		UpdateExpression: aws.String("ADD leadCount :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: IncrementLeadCount: %w", err)
	}
	return nil
}

// GetContent reads a configuration value from the content entries. A missing
// key is reported through the bool, not as an error.
func (s *Store) GetContent(ctx context.Context, key string) (string, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       metaKey(contentPK(key)),
	})
	if err != nil {
		return "", false, fmt.Errorf("repository: GetContent: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return "", false, nil
	}
	value, err := strAttr(out.Item, "value")
	if err != nil {
		return "", false, fmt.Errorf("repository: GetContent decode: %w", err)
	}
	return value, true, nil
}

// GetUser fetches a user by id. The second return reports existence.
func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       metaKey(userPK(userID)),
	})
	if err != nil {
		return domain.User{}, false, fmt.Errorf("repository: GetUser: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.User{}, false, nil
	}
	user, err := itemToUser(out.Item)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("repository: GetUser decode: %w", err)
	}
	return user, true, nil
}

// ListUsers scans every user record, following pagination.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.tableName),
			FilterExpression: aws.String("begins_with(PK, :p)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":p": &types.AttributeValueMemberS{Value: pkPrefixUser},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: ListUsers scan: %w", err)
		}
		for _, item := range out.Items {
			user, err := itemToUser(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListUsers decode: %w", err)
			}
			users = append(users, user)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return users, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListFormsByOwner queries the owner index for every form owned by ownerID.
func (s *Store) ListFormsByOwner(ctx context.Context, ownerID string) ([]domain.Form, error) {
	var forms []domain.Form
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(formOwnerIndex),
			KeyConditionExpression: aws.String("ownerId = :o"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":o": &types.AttributeValueMemberS{Value: ownerID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: ListFormsByOwner query: %w", err)
		}
		for _, item := range out.Items {
			form, err := itemToForm(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListFormsByOwner decode: %w", err)
			}
			forms = append(forms, form)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return forms, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func leadItem(lead domain.Lead) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: leadPK(lead.ID)},
		"SK":            &types.AttributeValueMemberS{Value: skMeta},
		"leadId":        &types.AttributeValueMemberS{Value: lead.ID},
		"formId":        &types.AttributeValueMemberS{Value: lead.FormID},
		"email":         &types.AttributeValueMemberS{Value: lead.Email},
		"url":           &types.AttributeValueMemberS{Value: lead.URL},
		"apartmentSize": &types.AttributeValueMemberN{Value: strconv.Itoa(lead.ApartmentSize)},
		"resultType":    &types.AttributeValueMemberS{Value: lead.ResultType},
		"resultText":    &types.AttributeValueMemberS{Value: lead.ResultText},
		"status":        &types.AttributeValueMemberS{Value: lead.Status},
		"createdAt":     &types.AttributeValueMemberS{Value: lead.CreatedAt},
	}
}

func itemToLead(item map[string]types.AttributeValue) (domain.Lead, error) {
	id, err := strAttr(item, "leadId")
	if err != nil {
		return domain.Lead{}, err
	}
	formID, err := strAttr(item, "formId")
	if err != nil {
		return domain.Lead{}, err
	}
	email, err := strAttr(item, "email")
	if err != nil {
		return domain.Lead{}, err
	}
	url, _ := strAttr(item, "url")
	resultType, _ := strAttr(item, "resultType")
	resultText, _ := strAttr(item, "resultText")
	status, _ := strAttr(item, "status")
	createdAt, _ := strAttr(item, "createdAt")
	apartmentSize, _ := intAttr(item, "apartmentSize")

	return domain.Lead{
		ID:            id,
		FormID:        formID,
		Email:         email,
		URL:           url,
		ApartmentSize: apartmentSize,
		ResultType:    resultType,
		ResultText:    resultText,
		Status:        status,
		CreatedAt:     createdAt,
	}, nil
}

func itemToForm(item map[string]types.AttributeValue) (domain.Form, error) {
	id, err := strAttr(item, "formId")
	if err != nil {
		return domain.Form{}, err
	}
	ownerID, err := strAttr(item, "ownerId")
	if err != nil {
		return domain.Form{}, err
	}
	leadCount, _ := intAttr(item, "leadCount")
	leadLimit, _ := intAttr(item, "leadLimit")
	active := boolAttr(item, "active")
	theme, _ := strAttr(item, "theme")
	language, _ := strAttr(item, "language")
	createdAt, _ := strAttr(item, "createdAt")

	return domain.Form{
		ID:        id,
		OwnerID:   ownerID,
		Active:    active,
		LeadCount: leadCount,
		LeadLimit: leadLimit,
		Theme:     theme,
		Language:  language,
		CreatedAt: createdAt,
	}, nil
}

func itemToUser(item map[string]types.AttributeValue) (domain.User, error) {
	id, err := strAttr(item, "userId")
	if err != nil {
		return domain.User{}, err
	}
	email, err := strAttr(item, "email")
	if err != nil {
		return domain.User{}, err
	}
	role, _ := strAttr(item, "role")
	createdAt, _ := strAttr(item, "createdAt")

	return domain.User{
		ID:        id,
		Email:     email,
		Role:      role,
		CreatedAt: createdAt,
	}, nil
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

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func boolAttr(item map[string]types.AttributeValue, key string) bool {
	v, ok := item[key]
	if !ok {
		return false
	}
	b, ok := v.(*types.AttributeValueMemberBOOL)
	if !ok {
		return false
	}
	return b.Value
}
