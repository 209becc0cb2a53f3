package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adda-Baaj/taja-digest/pkg/dedup"
)

func TestNormalizeCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"normalize", "HTTPS://Zenn.dev/a/?x=1", "ftp://nope"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out.String())
	}
	want := "HTTPS://Zenn.dev/a/?x=1\thttps://zenn.dev/a\t" + dedup.Key("https://zenn.dev/a")
	if lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
	if lines[1] != "ftp://nope\tinvalid" {
		t.Fatalf("line = %q", lines[1])
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "taja-digest version "+version+"\n" {
		t.Fatalf("version output = %q", got)
	}
}

func TestRunCommandFailsWithoutConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", "/nonexistent/config.yaml"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestNormalizeCommandReportsRegistration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.db")
	store, err := dedup.OpenBolt(path, nil)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if _, err := store.RegisterIfAbsent(context.Background(), "https://a.com/seen"); err != nil {
		t.Fatalf("RegisterIfAbsent: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"normalize", "--bolt", path, "https://A.com/seen;jsessionid=1", "https://a.com/fresh"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out.String())
	}
	if !strings.Contains(lines[0], "\tregistered until ") {
		t.Fatalf("seen url line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "\tnew") {
		t.Fatalf("fresh url line = %q", lines[1])
	}
}
