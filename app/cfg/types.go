package cfg

import (
	"fmt"
	"strings"
)

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// FeedURL returns the public URL a named feed is served from.
func (c *Cfg) FeedURL(name string) string {
	if c.BaseUrl != "" {
		return fmt.Sprintf("%s/feeds/%s", strings.TrimSuffix(c.BaseUrl, "/"), name)
	}
	return fmt.Sprintf("http://localhost:%s/feeds/%s", c.Port, name)
}
