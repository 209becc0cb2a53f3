package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/taja-digest/pkg/awsconf"
)

// Publisher types.
const (
	TypeQueue = "queue"
	TypeHTTP  = "http"
)

// Queue providers.
const (
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"
)

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig declares one digest sink. The webhook is built in code;
// extra sinks come from the publishers file.
type PublisherConfig struct {
	ID      string                `json:"id" yaml:"id"`
	Type    string                `json:"type" yaml:"type"`
	Enabled *bool                 `json:"enabled" yaml:"enabled"`
	Queue   *QueuePublisherConfig `json:"queue" yaml:"queue"`
	HTTP    *HTTPPublisherConfig  `json:"http" yaml:"http"`
}

// EnabledValue defaults to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// QueuePublisherConfig selects one cloud messaging provider.
type QueuePublisherConfig struct {
	Provider string                 `json:"provider" yaml:"provider"`
	AWS      *AWSSQSPublisherConfig `json:"aws" yaml:"aws"`
	SNS      *AWSSNSPublisherConfig `json:"sns" yaml:"sns"`
	GCP      *GCPQueueConfig        `json:"gcp" yaml:"gcp"`
}

// AWSAccess is the region and optional static key pair of an AWS sink.
// Without keys the default credential chain is used.
type AWSAccess struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

func (a AWSAccess) settings() awsconf.Settings {
	return awsconf.Settings{Region: a.Region, AccessKeyID: a.AccessKeyID, SecretAccessKey: a.SecretAccessKey}
}

func (a *AWSAccess) trim() {
	a.Region = strings.TrimSpace(a.Region)
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
}

func (a AWSAccess) validate(section, id string) error {
	if a.Region == "" {
		return fmt.Errorf("%s.region is required for publisher %q", section, id)
	}
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key must be set together for publisher %q", section, section, id)
	}
	return nil
}

// AWSSQSPublisherConfig points at an SQS queue. A queue URL ending in
// .fifo enables FIFO message grouping.
type AWSSQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSAccess `yaml:",inline"`
}

// AWSSNSPublisherConfig points at an SNS topic.
type AWSSNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSAccess `yaml:",inline"`
}

// GCPQueueConfig points at a Pub/Sub topic.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds webhook settings. URLParameter names a secret
// holding the endpoint and is used when URL is empty.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	URLParameter   string            `json:"url_parameter" yaml:"url_parameter"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConfigRegistry holds sanitized, validated publisher definitions in
// declaration order.
type ConfigRegistry struct {
	mu         sync.RWMutex
	publishers []PublisherConfig
	idx        map[string]int
}

// LoadRegistry reads a YAML or JSON publishers file. Environment references
// such as ${QUEUE_URL} are expanded before decoding.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeConfigFile([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(file.Publishers) == 0 {
		return nil, fmt.Errorf("publishers file %s declares no publishers", path)
	}

	return NewConfigRegistry(file.Publishers...)
}

// decodeConfigFile uses JSON for .json files and YAML otherwise.
func decodeConfigFile(data []byte, ext string) (configFile, error) {
	var file configFile
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	return file, err
}

// NewConfigRegistry sanitizes and validates publisher configs built in code.
func NewConfigRegistry(cfgs ...PublisherConfig) (*ConfigRegistry, error) {
	reg := &ConfigRegistry{idx: make(map[string]int, len(cfgs))}
	for i := range cfgs {
		if err := reg.add(cfgs[i]); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
	}
	return reg, nil
}

// Merge appends the publishers of other, rejecting duplicate ids.
func (r *ConfigRegistry) Merge(other *ConfigRegistry) error {
	for _, cfg := range other.All() {
		if err := r.add(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (r *ConfigRegistry) add(raw PublisherConfig) error {
	cfg := sanitizePublisherConfig(raw)
	if err := validatePublisherConfig(cfg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.idx[cfg.ID]; exists {
		return fmt.Errorf("duplicate publisher id %q", cfg.ID)
	}
	r.idx[cfg.ID] = len(r.publishers)
	r.publishers = append(r.publishers, cfg)
	return nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns a copy of every configured publisher.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns the publishers that are switched on.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}

	if cfg.Queue != nil {
		q := *cfg.Queue
		q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
		if q.AWS != nil {
			sqsCfg := *q.AWS
			sqsCfg.QueueURL = strings.TrimSpace(sqsCfg.QueueURL)
			sqsCfg.trim()
			q.AWS = &sqsCfg
		}
		if q.SNS != nil {
			snsCfg := *q.SNS
			snsCfg.TopicARN = strings.TrimSpace(snsCfg.TopicARN)
			snsCfg.trim()
			q.SNS = &snsCfg
		}
		if q.GCP != nil {
			g := *q.GCP
			g.ProjectID = strings.TrimSpace(g.ProjectID)
			g.Topic = strings.TrimSpace(g.Topic)
			g.CredentialsFile = strings.TrimSpace(g.CredentialsFile)
			q.GCP = &g
		}
		cfg.Queue = &q
	}

	if cfg.HTTP != nil {
		h := *cfg.HTTP
		h.URL = strings.TrimSpace(h.URL)
		h.URLParameter = strings.TrimSpace(h.URLParameter)
		h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
		if h.Method == "" {
			h.Method = httpDefaultMethod
		}
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		h.Headers = sanitizeHeaders(h.Headers)
		cfg.HTTP = &h
	}
	return cfg
}

// sanitizeHeaders drops entries with an empty key or value.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	switch cfg.Type {
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http section required for publisher %q", cfg.ID)
		}
		if cfg.HTTP.URL == "" && cfg.HTTP.URLParameter == "" {
			return fmt.Errorf("http.url or http.url_parameter is required for publisher %q", cfg.ID)
		}
		return nil
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue section required for publisher %q", cfg.ID)
		}
		return validateQueueConfig(cfg.ID, cfg.Queue)
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	default:
		return fmt.Errorf("type %q not supported for publisher %q", cfg.Type, cfg.ID)
	}
}

func validateQueueConfig(id string, q *QueuePublisherConfig) error {
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.AWS == nil || q.AWS.QueueURL == "" {
			return fmt.Errorf("aws.uri is required for publisher %q", id)
		}
		return q.AWS.validate("aws", id)
	case QueueProviderAWSSNS:
		if q.SNS == nil || q.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for publisher %q", id)
		}
		return q.SNS.validate("sns", id)
	case QueueProviderGCP:
		if q.GCP == nil || q.GCP.ProjectID == "" || q.GCP.Topic == "" {
			return fmt.Errorf("gcp.project_id and gcp.topic are required for publisher %q", id)
		}
		return nil
	default:
		return fmt.Errorf("queue provider %q not supported for publisher %q", q.Provider, id)
	}
}
