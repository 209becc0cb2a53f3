package publishers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const publishersYAML = `publishers:
  - id: audit-queue
    type: queue
    queue:
      provider: aws-sqs
      aws:
        uri: ${DIGEST_TEST_QUEUE_URL}
        region: ap-northeast-1
  - id: mirror
    type: http
    enabled: false
    http:
      url: https://example.com/hook
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	t.Setenv("DIGEST_TEST_QUEUE_URL", "https://sqs.ap-northeast-1.amazonaws.com/1/q")
	reg, err := LoadRegistry(writeFile(t, "publishers.yaml", publishersYAML))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	if got := len(reg.All()); got != 2 {
		t.Fatalf("all = %d", got)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "audit-queue" {
		t.Fatalf("enabled = %+v", enabled)
	}
	cfg, ok := reg.ByID("audit-queue")
	if !ok || cfg.Queue.AWS.QueueURL != "https://sqs.ap-northeast-1.amazonaws.com/1/q" {
		t.Fatalf("ByID = %+v, %v", cfg, ok)
	}
	mirror, _ := reg.ByID("mirror")
	if mirror.HTTP.Method != "POST" || mirror.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults = %+v", mirror.HTTP)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[{"id":"gcp","type":"queue","queue":{"provider":"gcp","gcp":{"project_id":"p","topic":"digests"}}}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByID("gcp"); !ok {
		t.Fatal("gcp publisher missing")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	bad := []PublisherConfig{
		{Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://x"}},
		{ID: "a"},
		{ID: "a", Type: "smtp"},
		{ID: "a", Type: TypeHTTP},
		{ID: "a", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{}},
		{ID: "a", Type: TypeQueue, Queue: &QueuePublisherConfig{Provider: "azure"}},
		{ID: "a", Type: TypeQueue, Queue: &QueuePublisherConfig{Provider: QueueProviderAWSSNS, SNS: &AWSSNSPublisherConfig{TopicARN: "arn", AWSAccess: AWSAccess{Region: "r", AccessKeyID: "only-one"}}}},
	}
	for i, cfg := range bad {
		if err := validatePublisherConfig(sanitizePublisherConfig(cfg)); err == nil {
			t.Errorf("case %d: expected error for %+v", i, cfg)
		}
	}
}

func TestNewConfigRegistryRejectsDuplicates(t *testing.T) {
	hook := PublisherConfig{ID: "slack", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://x"}}
	if _, err := NewConfigRegistry(hook, hook); err == nil {
		t.Fatal("expected duplicate id error")
	}

	reg, err := NewConfigRegistry(hook)
	if err != nil {
		t.Fatalf("NewConfigRegistry: %v", err)
	}
	other, _ := NewConfigRegistry(hook)
	if err := reg.Merge(other); err == nil {
		t.Fatal("expected merge duplicate error")
	}
}

type stubPublisher struct {
	id    string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return "stub" }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestPublishAllAttemptsEveryPublisher(t *testing.T) {
	boom := errors.New("boom")
	a := &stubPublisher{id: "a", err: boom}
	b := &stubPublisher{id: "b"}

	err := PublishAll(context.Background(), []Publisher{a, b}, testEvent(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls a=%d b=%d", a.calls, b.calls)
	}

	if err := PublishAll(context.Background(), nil, testEvent(), nil); err == nil {
		t.Fatal("expected error with no publishers")
	}
}

func TestDefaultRegistryBuildsHTTP(t *testing.T) {
	cfg := sanitizePublisherConfig(PublisherConfig{ID: "slack", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}})
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{cfg}, Deps{})
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].ID() != "slack" || pubs[0].Type() != TypeHTTP {
		t.Fatalf("pubs = %+v", pubs)
	}
}
