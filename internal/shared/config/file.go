package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// fileConfig is the optional YAML overlay. Secrets are read from the environment only.
type fileConfig struct {
	Env              string   `yaml:"env"`
	Port             string   `yaml:"port"`
	CORSAllowOrigins []string `yaml:"corsAllowOrigins"`
	LogLevel         string   `yaml:"logLevel"`
	LogFormat        string   `yaml:"logFormat"`
	DatabaseURL      string   `yaml:"databaseURL"`

	ObjectStore      string `yaml:"objectStore"`
	LocalStoreDir    string `yaml:"localStoreDir"`
	AWSRegion        string `yaml:"awsRegion"`
	S3Bucket         string `yaml:"s3Bucket"`
	S3Prefix         string `yaml:"s3Prefix"`
	MinioEndpoint    string `yaml:"minioEndpoint"`
	MinioAccessKey   string `yaml:"minioAccessKey"`
	MinioSecretKey   string `yaml:"minioSecretKey"`
	MinioBucket      string `yaml:"minioBucket"`
	MinioUseSSL      bool   `yaml:"minioUseSSL"`
	ArchiveGenerated bool   `yaml:"archiveGenerated"`

	GoogleRedirectURL string `yaml:"googleRedirectURL"`
	UIRedirectURL     string `yaml:"uiRedirectURL"`

	DefaultCredits int   `yaml:"defaultCredits"`
	CreditBundles  []int `yaml:"creditBundles"`

	HFBaseURL         string `yaml:"hfBaseURL"`
	ImagePrimaryModel string `yaml:"imagePrimaryModel"`
	ImageBackupModel  string `yaml:"imageBackupModel"`
	ImageTimeout      string `yaml:"imageTimeout"`

	VideoBaseURL      string `yaml:"videoBaseURL"`
	VideoModel        string `yaml:"videoModel"`
	VideoAspectRatio  string `yaml:"videoAspectRatio"`
	VideoPollInterval string `yaml:"videoPollInterval"`
	VideoMaxWait      string `yaml:"videoMaxWait"`

	LLMProvider string `yaml:"llmProvider"`
	LLMModel    string `yaml:"llmModel"`
	LLMTimeout  string `yaml:"llmTimeout"`

	InsightsSchedule   string `yaml:"insightsSchedule"`
	InsightsTimezone   string `yaml:"insightsTimezone"`
	InsightsSweepGrace string `yaml:"insightsSweepGrace"`

	RedisURL           string `yaml:"redisURL"`
	RateLimitRedisAddr string `yaml:"rateLimitRedisAddr"`
}

// loadFile reads the YAML overlay. A missing default file is not an error.
func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}
