package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "localhost", cfg.Database.Host)
			assert.Equal(t, 5432, cfg.Database.Port)
			assert.Equal(t, "fieldservice_db", cfg.Database.Database)
			assert.Equal(t, "job_events", cfg.RabbitMQ.Exchange.Name)
			assert.Equal(t, "job_events_invoicing", cfg.RabbitMQ.Queue.Name)
			assert.Equal(t, "fieldservice-api", cfg.App.Name)
			assert.Equal(t, TransitionPolicyStrict, cfg.Jobs.TransitionPolicy)
			assert.Equal(t, 4, cfg.Worker.Concurrency)
			assert.Equal(t, 10, cfg.RabbitMQ.Consumer.PrefetchCount)
			assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSAllowedOrigins)
			assert.True(t, cfg.Database.AutoMigrate)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("DATABASE_PASSWORD", "db-secret")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "db-secret", cfg.Database.Password)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, TransitionPolicyPermissive, cfg.Jobs.TransitionPolicy)
	assert.Equal(t, 5, cfg.Jobs.FeedSize)
	assert.Equal(t, 20, cfg.Jobs.DefaultPageSize)
	assert.Equal(t, 100, cfg.Jobs.MaxPageSize)
	assert.Equal(t, 30*24*time.Hour, cfg.Worker.InvoiceDueIn)
}

func validAPIConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "fieldservice_db",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "job_events"},
			Queue:    QueueConfig{Name: "job_events_invoicing"},
		},
		Auth: AuthConfig{JWTSecret: "secret"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "unknown tracing exporter",
			mutate:    func(c *Config) { c.Tracing.Exporter = "jaeger" },
			wantErr:   true,
			errString: "invalid tracing exporter",
		},
		{
			name:      "otlp exporter without endpoint",
			mutate:    func(c *Config) { c.Tracing.Exporter = TracingExporterOTLP },
			wantErr:   true,
			errString: "tracing endpoint is required",
		},
		{
			name: "otlp exporter with endpoint",
			mutate: func(c *Config) {
				c.Tracing.Exporter = TracingExporterOTLP
				c.Tracing.Endpoint = "collector:4318"
			},
			wantErr: false,
		},
		{
			name:      "sample ratio above one",
			mutate:    func(c *Config) { c.Tracing.SampleRatio = 1.5 },
			wantErr:   true,
			errString: "tracing sample_ratio",
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "missing jwt secret",
			mutate:    func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr:   true,
			errString: "auth jwt_secret is required",
		},
		{
			name:      "unknown transition policy",
			mutate:    func(c *Config) { c.Jobs.TransitionPolicy = "lenient" },
			wantErr:   true,
			errString: "invalid jobs transition_policy",
		},
		{
			name: "default page size above max",
			mutate: func(c *Config) {
				c.Jobs.DefaultPageSize = 200
				c.Jobs.MaxPageSize = 100
			},
			wantErr:   true,
			errString: "exceeds max_page_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAPIConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	base := func() *Config {
		cfg := validAPIConfig()
		cfg.Worker = WorkerConfig{
			Concurrency:     2,
			EventTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		}
		return cfg
	}

	t.Run("valid worker config", func(t *testing.T) {
		require.NoError(t, base().ValidateWorkerConfig())
	})

	t.Run("zero concurrency", func(t *testing.T) {
		cfg := base()
		cfg.Worker.Concurrency = 0
		err := cfg.ValidateWorkerConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker concurrency must be greater than 0")
	})

	t.Run("missing event timeout", func(t *testing.T) {
		cfg := base()
		cfg.Worker.EventTimeout = 0
		err := cfg.ValidateWorkerConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker event_timeout")
	})

	t.Run("worker does not need jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.Auth.JWTSecret = ""
		require.NoError(t, cfg.ValidateWorkerConfig())
	})
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.ValidateAPIConfig())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}

func TestPortConstants(t *testing.T) {
	assert.Equal(t, 1, MinPort)
	assert.Equal(t, 65535, MaxPort)
}

func TestLoad_ServiceConfigs(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	t.Run("worker config carries only worker settings", func(t *testing.T) {
		cfg, err := Load("../../configs/worker-service/config.yaml")
		require.NoError(t, err)

		require.NoError(t, cfg.ValidateWorkerConfig())
		assert.Equal(t, ServerConfig{}, cfg.Server)
		assert.Equal(t, AuthConfig{}, cfg.Auth)
		assert.Equal(t, PublishConfig{}, cfg.RabbitMQ.Publish)
		assert.Equal(t, "job_events_invoicing", cfg.RabbitMQ.Queue.Name)
		assert.Equal(t, 4, cfg.Worker.Concurrency)
		assert.Equal(t, 720*time.Hour, cfg.Worker.InvoiceDueIn)
	})

	t.Run("api config validates", func(t *testing.T) {
		cfg, err := Load("../../configs/api-service/config.yaml")
		require.NoError(t, err)

		require.NoError(t, cfg.ValidateAPIConfig())
		assert.Equal(t, TracingExporterStdout, cfg.Tracing.Exporter)
	})
}
