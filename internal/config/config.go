package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendFirestore = "firestore"
	BackendGCS       = "gcs"
	BackendMinio     = "minio"
	BackendPubSub    = "pubsub"
	BackendWorkflow  = "workflow"
	BackendMemory    = "memory"
)

// Config holds all configuration for the image functions.
type Config struct {
	ProjectID      string `envconfig:"PROJECT_ID"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	Port           string `envconfig:"PORT" default:"8080"`

	// Embedded so envconfig reads their variables without a prefix.
	StoreConfig
	BlobConfig
	NotifierConfig
}

type StoreConfig struct {
	Backend    string `envconfig:"STORE_BACKEND" default:"firestore"`
	Database   string `envconfig:"FIRESTORE_DATABASE" default:"images"`
	Collection string `envconfig:"FIRESTORE_COLLECTION" default:"TaskState"`
}

type BlobConfig struct {
	Backend        string `envconfig:"BLOB_BACKEND" default:"gcs"`
	Bucket         string `envconfig:"UPLOAD_BUCKET"`
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinioRegion    string `envconfig:"MINIO_REGION" default:"us-east-1"`
}

type NotifierConfig struct {
	Backend          string `envconfig:"NOTIFIER" default:"pubsub"`
	Topic            string `envconfig:"PUBSUB_TOPIC"`
	WorkflowID       string `envconfig:"WORKFLOW_ID"`
	WorkflowLocation string `envconfig:"WORKFLOW_LOCATION" default:"us-central1"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore is Load for functions that only use the task store. Blob and
// notifier settings are not checked.
func LoadStore() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that every setting the selected backends need is present.
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if err := c.validateBlob(); err != nil {
		return err
	}
	return c.validateNotifier()
}

// ValidateStore checks the task store settings only.
func (c *Config) ValidateStore() error {
	switch c.StoreConfig.Backend {
	case BackendFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID environment variable must be set")
		}
		if c.StoreConfig.Collection == "" {
			return fmt.Errorf("FIRESTORE_COLLECTION must be set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreConfig.Backend)
	}
	return nil
}

func (c *Config) validateBlob() error {
	switch c.BlobConfig.Backend {
	case BackendGCS, BackendMemory:
		if c.BlobConfig.Bucket == "" {
			return fmt.Errorf("UPLOAD_BUCKET environment variable must be set")
		}
	case BackendMinio:
		if c.BlobConfig.Bucket == "" || c.BlobConfig.MinioEndpoint == "" {
			return fmt.Errorf("UPLOAD_BUCKET and MINIO_ENDPOINT must be set")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobConfig.Backend)
	}
	return nil
}

func (c *Config) validateNotifier() error {
	switch c.NotifierConfig.Backend {
	case BackendPubSub:
		if c.ProjectID == "" || c.NotifierConfig.Topic == "" {
			return fmt.Errorf("PROJECT_ID and PUBSUB_TOPIC must be set")
		}
	case BackendWorkflow:
		if c.ProjectID == "" || c.NotifierConfig.WorkflowID == "" {
			return fmt.Errorf("PROJECT_ID and WORKFLOW_ID must be set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.NotifierConfig.Backend)
	}
	return nil
}
