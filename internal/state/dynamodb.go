package state

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBRegistry stores generated job specs under their stream and DON
// labels so the fleet-management layer can look them up.
type DynamoDBRegistry struct {
	client    *dynamodb.Client
	tableName string
}

type StreamJobRecord struct {
	StreamID      uint32    `dynamodbav:"stream_id"`
	StreamLabel   string    `dynamodbav:"stream_label"`
	DonLabel      string    `dynamodbav:"don_label"`
	ExternalJobID string    `dynamodbav:"external_job_id"`
	StreamType    string    `dynamodbav:"stream_type"`
	JobName       string    `dynamodbav:"job_name"`
	SpecJSON      string    `dynamodbav:"spec_json"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
	LastSynced    time.Time `dynamodbav:"last_synced"`
}

func NewDynamoDBRegistry(region, tableName string) (*DynamoDBRegistry, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &DynamoDBRegistry{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
	}, nil
}

func (r *DynamoDBRegistry) SaveJob(ctx context.Context, record *StreamJobRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}

	return nil
}

func (r *DynamoDBRegistry) GetJob(ctx context.Context, streamID uint32) (*StreamJobRecord, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"stream_id": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", streamID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get job record: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record StreamJobRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}

	return &record, nil
}

func (r *DynamoDBRegistry) DeleteJob(ctx context.Context, streamID uint32) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"stream_id": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", streamID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete job record: %w", err)
	}

	return nil
}

func (r *DynamoDBRegistry) ListJobs(ctx context.Context) ([]*StreamJobRecord, error) {
	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan job records: %w", err)
	}

	var records []*StreamJobRecord
	for _, item := range result.Items {
		var record StreamJobRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}

func (r *DynamoDBRegistry) TouchJob(ctx context.Context, streamID uint32) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"stream_id": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", streamID)},
		},
		UpdateExpression: aws.String("SET last_synced = :synced"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":synced": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to touch job record: %w", err)
	}

	return nil
}
