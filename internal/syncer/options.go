package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/raddo/internal/common"
)

// Options is the immutable input of one run.
type Options struct {
	PrimaryURL  string
	FallbackURL string
	Root        string

	// Start and End are the requested days; End is clamped to yesterday.
	Start time.Time
	End   time.Time

	// MaxRetries is the number of failed attempts tolerated per file on top
	// of the first one.
	MaxRetries int

	ForceRescan     bool
	ForceRedownload bool

	// RetryDelay is the first pause between attempts of one file; it grows
	// exponentially up to MaxRetryDelay. Zero disables waiting.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// MaxRetriesCeiling keeps the load on the public server reasonable.
const MaxRetriesCeiling = 20

// Validate reports configuration errors; they wrap common.ErrInvalidConfig.
func (o Options) Validate() error {
	switch {
	case strings.TrimSpace(o.PrimaryURL) == "":
		return fmt.Errorf("%w: primary url is empty", common.ErrInvalidConfig)
	case strings.TrimSpace(o.FallbackURL) == "":
		return fmt.Errorf("%w: historical url is empty", common.ErrInvalidConfig)
	case strings.TrimSpace(o.Root) == "":
		return fmt.Errorf("%w: local directory is empty", common.ErrInvalidConfig)
	case o.MaxRetries < 0:
		return fmt.Errorf("%w: errors allowed must not be negative", common.ErrInvalidConfig)
	case o.MaxRetries > MaxRetriesCeiling:
		return fmt.Errorf("%w: errors allowed %d exceeds %d, please be respectful with the data provider",
			common.ErrInvalidConfig, o.MaxRetries, MaxRetriesCeiling)
	case o.Start.IsZero() || o.End.IsZero():
		return fmt.Errorf("%w: start and end dates are required", common.ErrInvalidConfig)
	}
	return nil
}

func (o Options) primaryURL(name string) string {
	return withSlash(o.PrimaryURL) + name
}

func (o Options) fallbackURL(year, legacy string) string {
	return withSlash(o.FallbackURL) + year + "/" + legacy
}

func withSlash(base string) string {
	base = strings.TrimSpace(base)
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}
