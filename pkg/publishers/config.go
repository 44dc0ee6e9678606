package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeQueue = "queue"
	TypeHTTP  = "http"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// registryFile is the shape of the publishers configuration file.
type registryFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig is a single publisher entry from the registry file.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	Queue   *QueueConfig         `json:"queue" yaml:"queue"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// QueueConfig selects a cloud queue provider and its settings.
type QueueConfig struct {
	Provider string     `json:"provider" yaml:"provider"`
	SQS      *SQSConfig `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig `json:"sns" yaml:"sns"`
	GCP      *GCPConfig `json:"gcp" yaml:"gcp"`
}

// SQSConfig holds AWS SQS settings with static credentials.
type SQSConfig struct {
	QueueURL        string `json:"queue_url" yaml:"queue_url"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SNSConfig holds AWS SNS settings with static credentials.
type SNSConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// GCPConfig holds the minimal Pub/Sub topic settings.
type GCPConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoadConfigs reads publisher entries from a YAML or JSON registry file,
// expanding environment references, and returns the enabled ones.
func LoadConfigs(path string) ([]PublisherConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	expanded := []byte(os.ExpandEnv(string(raw)))

	reg, err := decodeRegistry(expanded, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(reg.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]struct{}, len(reg.Publishers))
	out := make([]PublisherConfig, 0, len(reg.Publishers))
	for i := range reg.Publishers {
		cfg := sanitizeConfig(reg.Publishers[i])
		if err := validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out, nil
}

// decodeRegistry decodes the registry file by extension, trying YAML
// then JSON when the extension is unknown.
func decodeRegistry(data []byte, ext string) (registryFile, error) {
	var reg registryFile
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return registryFile{}, fmt.Errorf("decode yaml publishers: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &reg); err != nil {
			return registryFile{}, fmt.Errorf("decode json publishers: %w", err)
		}
	default:
		if yaml.Unmarshal(data, &reg) == nil {
			return reg, nil
		}
		if json.Unmarshal(data, &reg) == nil {
			return reg, nil
		}
		return registryFile{}, errors.New("publishers file format not recognized (expected YAML or JSON)")
	}
	return reg, nil
}

// sanitizeConfig trims and normalizes a publisher entry.
func sanitizeConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Queue != nil {
		qc := *cfg.Queue
		qc.Provider = strings.ToLower(strings.TrimSpace(qc.Provider))
		cfg.Queue = &qc
	}
	if cfg.HTTP != nil {
		hc := *cfg.HTTP
		hc.URL = strings.TrimSpace(hc.URL)
		hc.Method = strings.ToUpper(strings.TrimSpace(hc.Method))
		if hc.Method == "" {
			hc.Method = httpDefaultMethod
		}
		if hc.TimeoutSeconds <= 0 {
			hc.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &hc
	}
	return cfg
}

// validateConfig checks that required fields are present.
func validateConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	switch cfg.Type {
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for publisher %q", cfg.ID)
		}
		switch cfg.Queue.Provider {
		case QueueProviderAWSSQS:
			return validateSQSConfig(cfg.ID, cfg.Queue.SQS)
		case QueueProviderAWSSNS:
			return validateSNSConfig(cfg.ID, cfg.Queue.SNS)
		case QueueProviderGCP:
			return validateGCPConfig(cfg.ID, cfg.Queue.GCP)
		default:
			return fmt.Errorf("queue provider %q not supported for publisher %q", cfg.Queue.Provider, cfg.ID)
		}
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for publisher %q", cfg.ID)
		}
		if cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for publisher %q", cfg.ID)
		}
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	default:
		return fmt.Errorf("type %q not supported for publisher %q", cfg.Type, cfg.ID)
	}
	return nil
}

func validateSQSConfig(id string, cfg *SQSConfig) error {
	if cfg == nil {
		return fmt.Errorf("sqs config required for publisher %q", id)
	}
	if cfg.QueueURL == "" {
		return fmt.Errorf("sqs.queue_url is required for publisher %q", id)
	}
	if cfg.Region == "" {
		return fmt.Errorf("sqs.region is required for publisher %q", id)
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return fmt.Errorf("sqs credentials are required for publisher %q", id)
	}
	return nil
}

func validateSNSConfig(id string, cfg *SNSConfig) error {
	if cfg == nil {
		return fmt.Errorf("sns config required for publisher %q", id)
	}
	if cfg.TopicARN == "" {
		return fmt.Errorf("sns.topic_arn is required for publisher %q", id)
	}
	if cfg.Region == "" {
		return fmt.Errorf("sns.region is required for publisher %q", id)
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return fmt.Errorf("sns credentials are required for publisher %q", id)
	}
	return nil
}

func validateGCPConfig(id string, cfg *GCPConfig) error {
	if cfg == nil {
		return fmt.Errorf("gcp config required for publisher %q", id)
	}
	if cfg.ProjectID == "" {
		return fmt.Errorf("gcp.project_id is required for publisher %q", id)
	}
	if cfg.Topic == "" {
		return fmt.Errorf("gcp.topic is required for publisher %q", id)
	}
	return nil
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
