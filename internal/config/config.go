package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AWS     AWSConfig     `yaml:"aws"`
	Don     DonConfig     `yaml:"don"`
	Logging LoggingConfig `yaml:"logging"`
}

type AWSConfig struct {
	Region        string `yaml:"region"`
	SQSQueueURL   string `yaml:"sqs_queue_url"`
	DynamoDBTable string `yaml:"dynamodb_table"`
}

type DonConfig struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "/etc/don-provisioner/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	if val := os.Getenv("AWS_REGION"); val != "" {
		config.AWS.Region = val
	}
	if val := os.Getenv("STREAM_EVENTS_QUEUE_URL"); val != "" {
		config.AWS.SQSQueueURL = val
	}
	if val := os.Getenv("DYNAMODB_TABLE"); val != "" {
		config.AWS.DynamoDBTable = val
	}
	if val := os.Getenv("DON_ID"); val != "" {
		id, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid DON_ID %q: %w", val, err)
		}
		config.Don.ID = uint32(id)
	}
	if val := os.Getenv("DON_NAME"); val != "" {
		config.Don.Name = val
	}

	if config.Don.Name == "" {
		return nil, fmt.Errorf("don name must be configured")
	}

	return &config, nil
}
