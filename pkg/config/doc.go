// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	FLEETGATE_HOST="0.0.0.0"
//	FLEETGATE_PORT="8080"
//	FLEETGATE_HEALTH_PORT="9090"
//	FLEETGATE_READ_TIMEOUT="15s"
//	FLEETGATE_WRITE_TIMEOUT="15s"
//
// Store settings:
//
//	FLEETGATE_STORE_TYPE="dynamodb"  # memory, redis, dynamodb
//	FLEETGATE_REDIS_URL="redis://localhost:6379"
//	FLEETGATE_DYNAMO_TABLE="fleetgate-robots"
//	FLEETGATE_DYNAMO_REGION="us-east-1"
//	FLEETGATE_DYNAMO_ENDPOINT=""     # set for local DynamoDB
//
// Auth settings:
//
//	FLEETGATE_AUTH_MODE="rs256"      # none, rs256, oidc
//	FLEETGATE_AUTH_PUBLIC_KEY="/etc/fleetgate/jwt.pem"
//	FLEETGATE_AUTH_ISSUER=""
//	FLEETGATE_AUTH_AUDIENCE=""
//	FLEETGATE_OIDC_ISSUER_URL=""
//	FLEETGATE_OIDC_CLIENT_ID=""
//
// Ingest settings:
//
//	FLEETGATE_INGEST_REDIS_URL="redis://localhost:6379"
//	FLEETGATE_INGEST_TOPIC_PATTERN="tenant/*/robot/*/status"
//
// Observability settings:
//
//	FLEETGATE_LOG_LEVEL="info"  # debug, info, warn, error
//	FLEETGATE_METRICS_ENABLED="true"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
