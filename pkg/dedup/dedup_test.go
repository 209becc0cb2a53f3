package dedup

import (
	"strings"
	"testing"
	"time"

	"github.com/Adda-Baaj/taja-digest/pkg/urlnorm"
)

func TestKeyIsContentAddressed(t *testing.T) {
	a, _ := urlnorm.Normalize("HTTPS://Example.com/post/")
	b, _ := urlnorm.Normalize("https://example.com/post?utm=rss")
	if Key(a) != Key(b) {
		t.Fatalf("keys differ for equivalent urls: %s vs %s", Key(a), Key(b))
	}

	k := Key(a)
	if !strings.HasPrefix(k, KeyPrefix) {
		t.Fatalf("key %q missing prefix", k)
	}
	if got := len(strings.TrimPrefix(k, KeyPrefix)); got != 64 {
		t.Fatalf("digest length = %d, want 64", got)
	}
}

func TestNewRecordExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := NewRecord("https://a.com/x", now, DefaultRetention)
	if !rec.ExpiresAt.Equal(now.Add(72 * time.Hour)) {
		t.Fatalf("expires_at = %v", rec.ExpiresAt)
	}
	if rec.URL != "https://a.com/x" {
		t.Fatalf("url = %q", rec.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dynamodb ok", Config{Backend: "dynamodb", Table: "dedup"}, false},
		{"dynamodb missing table", Config{Backend: "dynamodb"}, true},
		{"bolt ok", Config{Backend: "bolt", BoltPath: "/tmp/x.db"}, false},
		{"bolt missing path", Config{Backend: "bolt"}, true},
		{"unknown backend", Config{Backend: "redis"}, true},
		{"negative retention", Config{Backend: "bolt", BoltPath: "x.db", Retention: -time.Second}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
