package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var dynamoTracer = otel.Tracer("fleetgate/store/dynamodb")

// DynamoDBClient is the subset of the DynamoDB API the store uses. Keeping
// it narrow lets tests provide a fake without a live endpoint.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var _ DynamoDBClient = (*dynamodb.Client)(nil)

// DynamoDBStore persists robot records in a DynamoDB table partitioned by
// tenant_id with robot_id as the sort key.
type DynamoDBStore struct {
	client DynamoDBClient
	table  string
}

// NewDynamoDBStore builds a store backed by a real DynamoDB client. Static
// credentials are used when configured (local DynamoDB or explicit keys);
// otherwise the default credential chain applies.
func NewDynamoDBStore(cfg Config) (*DynamoDBStore, error) {
	ctx := context.Background()

	var awsCfg aws.Config
	var err error

	if cfg.DynamoAccessKey != "" && cfg.DynamoSecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.DynamoRegion),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.DynamoAccessKey,
				cfg.DynamoSecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.DynamoRegion),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})

	return &DynamoDBStore{client: client, table: cfg.DynamoTable}, nil
}

// NewDynamoDBStoreWithClient wraps an existing client, used by tests.
func NewDynamoDBStoreWithClient(client DynamoDBClient, table string) *DynamoDBStore {
	return &DynamoDBStore{client: client, table: table}
}

func dynamoKey(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id": &types.AttributeValueMemberS{Value: key.TenantID},
		"robot_id":  &types.AttributeValueMemberS{Value: key.RobotID},
	}
}

// GetRobot fetches the item for key.
func (s *DynamoDBStore) GetRobot(ctx context.Context, key Key) (*RobotRecord, error) {
	ctx, span := dynamoTracer.Start(ctx, "DynamoDB.GetItem",
		trace.WithAttributes(
			attribute.String("dynamodb.table", s.table),
			attribute.String("robot.key", key.String()),
		),
	)
	defer span.End()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       dynamoKey(key),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get item failed")
		return nil, fmt.Errorf("failed to get robot %s: %w", key, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var rec RobotRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unmarshal failed")
		return nil, fmt.Errorf("failed to decode robot %s: %w", key, err)
	}
	return &rec, nil
}

// PutRobotStatus reads the current item, merges the update and writes it
// back. Concurrent writers are last-writer-wins.
func (s *DynamoDBStore) PutRobotStatus(ctx context.Context, key Key, status map[string]interface{}, lastSeen time.Time) (*RobotRecord, error) {
	ctx, span := dynamoTracer.Start(ctx, "DynamoDB.PutItem",
		trace.WithAttributes(
			attribute.String("dynamodb.table", s.table),
			attribute.String("robot.key", key.String()),
		),
	)
	defer span.End()

	var base map[string]interface{}
	if existing, err := s.GetRobot(ctx, key); err == nil {
		base = existing.Status
	} else if err != ErrNotFound {
		return nil, err
	}

	rec := &RobotRecord{
		TenantID: key.TenantID,
		RobotID:  key.RobotID,
		Status:   mergeStatus(base, status),
		LastSeen: lastSeen,
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal failed")
		return nil, fmt.Errorf("failed to encode robot %s: %w", key, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put item failed")
		return nil, fmt.Errorf("failed to put robot %s: %w", key, err)
	}
	return rec, nil
}

// Close is a no-op; the SDK client holds no closable resources.
func (s *DynamoDBStore) Close() error {
	return nil
}
