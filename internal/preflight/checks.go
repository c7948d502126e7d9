package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"subburn/internal/fonts"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// minBytes available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free", formatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s, below %s", detail, formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckFontFile verifies the burn font parses and reports its family name.
func CheckFontFile(path string) Result {
	const name = "Subtitle font"
	family, err := fonts.ResolveName(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%q from %s", family, path)}
}

// CheckBucket verifies the link delivery bucket is reachable with the
// configured credentials.
func CheckBucket(ctx context.Context, bucket BucketChecker) Result {
	const name = "Storage bucket"
	if bucket == nil {
		return Result{Name: name, Detail: "storage not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := bucket.Check(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", bucket.Bucket(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", bucket.Bucket())}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
