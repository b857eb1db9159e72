package security

import (
	"fmt"

	"github.com/klauspost/compress/zip"
)

// BombCheckResult contains the results of a zip bomb pre-scan.
type BombCheckResult struct {
	Reason                string
	TotalUncompressedSize uint64
	FileCount             int
	MaxCompressionRatio   float64
	IsSafe                bool
}

// Limits configures the zip bomb detection thresholds.
type Limits struct {
	MaxExtractedSize    uint64  // bytes
	MaxFileCount        int     // entries, directories included
	MaxCompressionRatio float64 // per file, uncompressed:compressed
}

// DefaultLimits returns limits sized for source snapshots of large repositories.
func DefaultLimits() Limits {
	return Limits{
		MaxExtractedSize:    2 * 1024 * 1024 * 1024, // 2 GB
		MaxFileCount:        200000,
		MaxCompressionRatio: 200.0,
	}
}

// CheckZipBomb reads only the central directory of an opened archive and
// reports whether extracting it would exceed the limits. Zero-valued limit
// fields are not enforced.
func CheckZipBomb(r *zip.Reader, limits Limits) *BombCheckResult {
	result := &BombCheckResult{
		IsSafe:    true,
		FileCount: len(r.File),
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		result.TotalUncompressedSize += f.UncompressedSize64

		if f.CompressedSize64 > 0 {
			ratio := float64(f.UncompressedSize64) / float64(f.CompressedSize64)
			if ratio > result.MaxCompressionRatio {
				result.MaxCompressionRatio = ratio
			}
		}
	}

	switch {
	case limits.MaxExtractedSize > 0 && result.TotalUncompressedSize > limits.MaxExtractedSize:
		result.IsSafe = false
		result.Reason = fmt.Sprintf("total uncompressed size (%d bytes) exceeds limit (%d bytes)",
			result.TotalUncompressedSize, limits.MaxExtractedSize)
	case limits.MaxFileCount > 0 && result.FileCount > limits.MaxFileCount:
		result.IsSafe = false
		result.Reason = fmt.Sprintf("file count (%d) exceeds limit (%d)",
			result.FileCount, limits.MaxFileCount)
	case limits.MaxCompressionRatio > 0 && result.MaxCompressionRatio > limits.MaxCompressionRatio:
		result.IsSafe = false
		result.Reason = fmt.Sprintf("compression ratio (%.2f:1) exceeds limit (%.2f:1)",
			result.MaxCompressionRatio, limits.MaxCompressionRatio)
	}

	return result
}
