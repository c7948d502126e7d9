package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"subburn/internal/config"
	"subburn/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// BucketChecker is the object store probe used for link delivery.
type BucketChecker interface {
	Check(ctx context.Context) error
	Bucket() string
}

// RunAll executes all applicable preflight checks for the given config.
// bucket may be nil when link delivery is not configured.
func RunAll(ctx context.Context, cfg *config.Config, bucket BucketChecker) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, minFreeBytes),
		CheckFontFile(cfg.Style.FontFile),
	}

	filter := deps.CheckSubtitlesFilter(ctx, cfg.FFmpegBinary())
	results = append(results, Result{Name: filter.Name, Passed: filter.Available, Detail: filterDetail(filter)})

	if strings.EqualFold(cfg.Delivery.Mode, config.DeliveryLink) {
		results = append(results, CheckBucket(ctx, bucket))
	}
	return results
}

// CheckSystemDeps evaluates the external binaries for the given config. Both
// the daemon and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// ValidateStartup runs the checks whose failure makes the bot useless and
// joins their failures into one error.
func ValidateStartup(ctx context.Context, cfg *config.Config, bucket BucketChecker) error {
	if cfg == nil {
		return errors.New("preflight: config is required")
	}
	var errs []error
	for _, status := range CheckSystemDeps(cfg) {
		if !status.Optional && !status.Available {
			errs = append(errs, fmt.Errorf("%s: %s", status.Name, status.Detail))
		}
	}
	for _, result := range RunAll(ctx, cfg, bucket) {
		if result.Passed || !fatal(result.Name) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %s", result.Name, result.Detail))
	}
	if len(errs) > 0 {
		return fmt.Errorf("preflight failed: %w", errors.Join(errs...))
	}
	return nil
}

// Free space below this is reported but does not block startup.
const minFreeBytes = 1 << 30

func fatal(name string) bool {
	switch name {
	case "Work directory space":
		return false
	default:
		return true
	}
}

func filterDetail(status deps.Status) string {
	if status.Available {
		return "libass subtitles filter present"
	}
	return status.Detail
}
