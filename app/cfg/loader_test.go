package cfg

import (
	"os"
	"testing"
)

func loadWithArgs(t *testing.T, args ...string) *Cfg {
	t.Helper()

	oldArgs := os.Args
	os.Args = append([]string{"feedpress"}, args...)
	defer func() { os.Args = oldArgs }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected configuration, got nil")
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadWithArgs(t)

	if cfg.DBPath != "./feedpress.db" {
		t.Errorf("Expected default db path, got %q", cfg.DBPath)
	}
	if cfg.FeedsDir != "./feeds" {
		t.Errorf("Expected default feeds dir, got %q", cfg.FeedsDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected default worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval != 30 {
		t.Errorf("Expected default scheduler interval 30, got %d", cfg.SchedulerInterval)
	}
	if cfg.UserAgent != "FeedPress/1.0" {
		t.Errorf("Expected default user agent, got %q", cfg.UserAgent)
	}
	if cfg.Debug {
		t.Error("Expected debug disabled by default")
	}
}

func TestLoadFlags(t *testing.T) {
	cfg := loadWithArgs(t,
		"--port", "9090",
		"--base-url", "https://feeds.example.com",
		"--worker-count", "2",
		"--debug")

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.BaseUrl != "https://feeds.example.com" {
		t.Errorf("Expected base url, got %q", cfg.BaseUrl)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
	if !cfg.Debug {
		t.Error("Expected debug enabled")
	}
}

func TestGetAfterLoad(t *testing.T) {
	loaded := loadWithArgs(t)

	if Get() != loaded {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("Expected a non-empty version")
	}
}

func TestFeedURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Cfg
		feed     string
		expected string
	}{
		{
			"with base url",
			Cfg{BaseUrl: "https://feeds.example.com", Port: "8080"},
			"news",
			"https://feeds.example.com/feeds/news",
		},
		{
			"base url with trailing slash",
			Cfg{BaseUrl: "https://feeds.example.com/", Port: "8080"},
			"news",
			"https://feeds.example.com/feeds/news",
		},
		{
			"without base url",
			Cfg{Port: "9090"},
			"news",
			"http://localhost:9090/feeds/news",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.cfg.FeedURL(test.feed); got != test.expected {
				t.Errorf("Expected %q, got %q", test.expected, got)
			}
		})
	}
}
