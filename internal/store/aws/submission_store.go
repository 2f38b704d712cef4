// Package aws implements the submission store on DynamoDB. The lifecycle
// guards are expressed as condition expressions so the table enforces the
// same transitions as the SQL backend.
package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
)

// SubmissionStore is a DynamoDB implementation of store.SubmissionStore.
type SubmissionStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewSubmissionStore creates a new DynamoDB submission store.
func NewSubmissionStore(client *dynamodb.Client, tableName string) *SubmissionStore {
	return &SubmissionStore{
		client:    client,
		tableName: tableName,
	}
}

// Create persists a new submission, rejecting duplicate IDs.
func (s *SubmissionStore) Create(ctx context.Context, sub *models.Submission) error {
	item, err := attributevalue.MarshalMap(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return store.ErrDuplicateSubmission
		}
		return wrapAWSError(err, "failed to create submission")
	}

	log.Info().
		Str("submission_id", sub.ID).
		Str("organization", string(sub.Organization)).
		Msg("Created submission")

	return nil
}

// Get retrieves a submission by ID.
func (s *SubmissionStore) Get(ctx context.Context, id string) (*models.Submission, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, wrapAWSError(err, "failed to get submission")
	}

	if result.Item == nil {
		return nil, store.ErrSubmissionNotFound
	}

	var sub models.Submission
	if err := attributevalue.UnmarshalMap(result.Item, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
	}

	return &sub, nil
}

// SetOutcome records the verification outcome with a condition on the pending
// state. A failed condition is resolved to not-found or not-pending with a
// follow-up read.
func (s *SubmissionStore) SetOutcome(ctx context.Context, id string, status models.SubmissionStatus, payload []byte, now time.Time) error {
	update := expression.Set(
		expression.Name("status"),
		expression.Value(status),
	).Set(
		expression.Name("updated_at"),
		expression.Value(now),
	)
	if payload != nil {
		update = update.Set(
			expression.Name("verification_payload"),
			expression.Value(payload),
		)
	}

	condition := expression.Name("status").Equal(expression.Value(models.StatusPending))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			if _, getErr := s.Get(ctx, id); getErr != nil {
				return getErr
			}
			return store.ErrNotPending
		}
		return wrapAWSError(err, "failed to set submission outcome")
	}

	log.Info().
		Str("submission_id", id).
		Str("status", string(status)).
		Msg("Recorded verification outcome")

	return nil
}

// ListUnexported scans for submissions with status=approved and
// exported=false. The table is small enough for a filtered scan; a sparse
// GSI would replace this at higher volumes.
func (s *SubmissionStore) ListUnexported(ctx context.Context) ([]*models.Submission, error) {
	filter := expression.Name("status").Equal(expression.Value(models.StatusApproved)).
		And(expression.Name("exported").Equal(expression.Value(false)))

	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter expression: %w", err)
	}

	var results []*models.Submission

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapAWSError(err, "failed to list unexported submissions")
		}

		for _, item := range page.Items {
			var sub models.Submission
			if err := attributevalue.UnmarshalMap(item, &sub); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal submission, skipping")
				continue
			}
			results = append(results, &sub)
		}
	}

	log.Debug().Int("count", len(results)).Msg("Listed unexported submissions")

	return results, nil
}

// MarkExported flips the exported flag with a condition on approved and
// not-yet-exported.
func (s *SubmissionStore) MarkExported(ctx context.Context, id string, at time.Time) error {
	update := expression.Set(
		expression.Name("exported"),
		expression.Value(true),
	).Set(
		expression.Name("exported_at"),
		expression.Value(at),
	).Set(
		expression.Name("updated_at"),
		expression.Value(at),
	)

	condition := expression.Name("status").Equal(expression.Value(models.StatusApproved)).
		And(expression.Name("exported").Equal(expression.Value(false)))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			if _, getErr := s.Get(ctx, id); getErr != nil {
				return getErr
			}
			return store.ErrNotExportable
		}
		return wrapAWSError(err, "failed to mark submission exported")
	}

	log.Debug().
		Str("submission_id", id).
		Msg("Marked submission exported")

	return nil
}
