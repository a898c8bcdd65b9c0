package images

import (
	"crypto/md5"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum for a Mat to verify idempotency.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	before := ComputeMatChecksum(mask)
//	_ = Open(&mask, kernel)
//	changed := before != ComputeMatChecksum(mask)
//
// ```
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		return "unreadable"
	}
	hash := md5.New()
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// MaskCoverage returns the number of set pixels in a single channel mask.
func MaskCoverage(mask gocv.Mat) int {
	if mask.Empty() {
		return 0
	}
	return gocv.CountNonZero(mask)
}
