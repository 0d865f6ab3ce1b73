package store

// Config selects and configures a store backend.
type Config struct {
	// Type selects the backend: "memory", "redis", or "dynamodb".
	Type string

	// Redis settings.
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// DynamoDB settings.
	DynamoTable     string
	DynamoRegion    string
	DynamoEndpoint  string
	DynamoAccessKey string
	DynamoSecretKey string
}

// DefaultConfig keeps everything in process memory, suitable for tests and
// local development.
func DefaultConfig() Config {
	return Config{
		Type:         "memory",
		RedisURL:     "redis://localhost:6379",
		RedisDB:      -1,
		DynamoTable:  "fleetgate-robots",
		DynamoRegion: "us-east-1",
	}
}
