package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "demo")
	t.Setenv("UPLOAD_BUCKET", "uploads")
	t.Setenv("PUBSUB_TOPIC", "image-tasks")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.ProjectID)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendFirestore, cfg.StoreConfig.Backend)
	assert.Equal(t, "images", cfg.StoreConfig.Database)
	assert.Equal(t, "TaskState", cfg.StoreConfig.Collection)
	assert.Equal(t, BackendGCS, cfg.BlobConfig.Backend)
	assert.Equal(t, "uploads", cfg.BlobConfig.Bucket)
	assert.Equal(t, BackendPubSub, cfg.NotifierConfig.Backend)
	assert.Equal(t, "image-tasks", cfg.NotifierConfig.Topic)
	assert.Equal(t, "us-central1", cfg.NotifierConfig.WorkflowLocation)
	assert.Equal(t, "us-east-1", cfg.BlobConfig.MinioRegion)
}

func TestLoad_Port(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BLOB_BACKEND", "memory")
	t.Setenv("UPLOAD_BUCKET", "local")
	t.Setenv("NOTIFIER", "memory")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoadStore_IgnoresBlobAndNotifier(t *testing.T) {
	t.Setenv("PROJECT_ID", "demo")
	t.Setenv("UPLOAD_BUCKET", "")
	t.Setenv("PUBSUB_TOPIC", "")

	_, err := Load()
	require.Error(t, err)

	cfg, err := LoadStore()
	require.NoError(t, err)
	assert.Equal(t, BackendFirestore, cfg.StoreConfig.Backend)
}

func TestLoadStore_RequiresProjectForFirestore(t *testing.T) {
	t.Setenv("PROJECT_ID", "")

	_, err := LoadStore()
	assert.Error(t, err)
}

func TestLoad_MemoryBackendsNeedNoProject(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BLOB_BACKEND", "memory")
	t.Setenv("UPLOAD_BUCKET", "local")
	t.Setenv("NOTIFIER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreConfig.Backend)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ProjectID:      "demo",
			MaxUploadBytes: 1024,
			StoreConfig:    StoreConfig{Backend: BackendFirestore, Collection: "TaskState"},
			BlobConfig:     BlobConfig{Backend: BackendGCS, Bucket: "uploads"},
			NotifierConfig: NotifierConfig{Backend: BackendPubSub, Topic: "image-tasks"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing project", func(c *Config) { c.ProjectID = "" }, false},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, false},
		{"unknown store", func(c *Config) { c.StoreConfig.Backend = "cosmos" }, false},
		{"missing bucket", func(c *Config) { c.BlobConfig.Bucket = "" }, false},
		{"minio without endpoint", func(c *Config) { c.BlobConfig.Backend = BackendMinio }, false},
		{"minio", func(c *Config) {
			c.BlobConfig.Backend = BackendMinio
			c.BlobConfig.MinioEndpoint = "localhost:9000"
		}, true},
		{"missing topic", func(c *Config) { c.NotifierConfig.Topic = "" }, false},
		{"workflow without id", func(c *Config) { c.NotifierConfig.Backend = BackendWorkflow }, false},
		{"workflow", func(c *Config) {
			c.NotifierConfig.Backend = BackendWorkflow
			c.NotifierConfig.WorkflowID = "image-pipeline"
		}, true},
		{"unknown notifier", func(c *Config) { c.NotifierConfig.Backend = "servicebus" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
