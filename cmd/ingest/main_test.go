package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("EDGAR_USER_AGENT", "Test Suite test@example.com")
	t.Setenv("CACHE_DIR", t.TempDir())
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestRunRequest(t *testing.T) {
	cmd := &cobra.Command{}
	addRunFlags(cmd)
	if err := cmd.ParseFlags([]string{"--cik", "0001067983", "--form", "13f,13g", "--limit", "3", "--since", "2024-01-01", "--dest", "none"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	req, err := runRequest(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.CIK != "0001067983" || req.Limit != 3 || req.Merge || req.Discovery != "submissions" {
		t.Errorf("unexpected request: %+v", req)
	}
	if len(req.Kinds) != 2 || req.Since.Format("2006-01-02") != "2024-01-01" {
		t.Errorf("unexpected kinds or since: %v %v", req.Kinds, req.Since)
	}
}

func TestRunRequest_Invalid(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--dest", "s3"}, "--dest must be"},
		{[]string{"--form", "10-K"}, "unknown filing kind"},
		{[]string{"--discovery", "rss"}, "--discovery must be"},
		{[]string{"--since", "soon"}, "invalid --since"},
		{[]string{"--limit", "-2"}, "--limit must not be negative"},
	}
	for _, tt := range tests {
		cmd := &cobra.Command{}
		addRunFlags(cmd)
		if err := cmd.ParseFlags(append([]string{"--cik", "1067983"}, tt.args...)); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		_, err := runRequest(cmd)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: expected error containing %q, got %v", tt.args, tt.want, err)
		}
	}
}

func TestCacheGetMissing(t *testing.T) {
	err := execute(t, "cache", "get", "0000763212-24-000010", "--form", "13g")
	if err == nil || !strings.Contains(err.Error(), "no current cache entry") {
		t.Errorf("expected a cache miss, got %v", err)
	}
}

func TestCacheNamespace(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("form", "13f", "")

	ns, err := cacheNamespace(cmd)
	if err != nil || ns != "f13" {
		t.Errorf("expected f13, got %q (%v)", ns, err)
	}
	cmd.Flags().Set("form", "SC 13G/A")
	if ns, _ := cacheNamespace(cmd); ns != "g13" {
		t.Errorf("expected g13, got %q", ns)
	}
	cmd.Flags().Set("form", "10-K")
	if _, err := cacheNamespace(cmd); err == nil {
		t.Error("expected an error for an unknown form")
	}
}
