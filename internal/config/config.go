package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Postgres DBConfig
	Redis    RedisConfig
	S3       S3Config
	Upload   UploadConfig
	Worker   WorkerConfig
	Logger   Logger
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type UploadConfig struct {
	MaxFileSize      int64
	MinChunkSize     int64
	MaxChunkSize     int64
	DefaultChunkSize int64
	SessionTTL       time.Duration
	SweepInterval    time.Duration
}

type WorkerConfig struct {
	WorkerCount       int
	MaxCPUUsage       float64
	EncodeConcurrency int
	VisibilityTimeout time.Duration
	ReapInterval      time.Duration
	PollInterval      time.Duration
	TempDir           string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	JobQueueKey   string
	ProgressTTL   time.Duration
}

type S3Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UploadBucket string
	OutputBucket string
	PublicURL    string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = 10 << 30
	}
	if c.Upload.MinChunkSize == 0 {
		c.Upload.MinChunkSize = 1 << 20
	}
	if c.Upload.MaxChunkSize == 0 {
		c.Upload.MaxChunkSize = 100 << 20
	}
	if c.Upload.DefaultChunkSize == 0 {
		c.Upload.DefaultChunkSize = 5 << 20
	}
	if c.Upload.SessionTTL == 0 {
		c.Upload.SessionTTL = 24 * time.Hour
	}
	if c.Upload.SweepInterval == 0 {
		c.Upload.SweepInterval = 10 * time.Minute
	}
	if c.Worker.WorkerCount == 0 {
		c.Worker.WorkerCount = 2
	}
	if c.Worker.MaxCPUUsage == 0 {
		c.Worker.MaxCPUUsage = 85.0
	}
	if c.Worker.EncodeConcurrency == 0 {
		c.Worker.EncodeConcurrency = 2
	}
	if c.Worker.VisibilityTimeout == 0 {
		c.Worker.VisibilityTimeout = 30 * time.Minute
	}
	if c.Worker.ReapInterval == 0 {
		c.Worker.ReapInterval = time.Minute
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = 5 * time.Second
	}
	if c.Worker.TempDir == "" {
		c.Worker.TempDir = "tmp_jobs"
	}
	if c.Redis.JobQueueKey == "" {
		c.Redis.JobQueueKey = "video:jobs"
	}
	if c.Redis.ProgressTTL == 0 {
		c.Redis.ProgressTTL = 24 * time.Hour
	}
}
