package audio

import (
	"math"
)

// CalculatePSNR compares two sample streams of the given bit depth.
func CalculatePSNR(original, stego []int, bitDepth int) float64 {
	if len(original) != len(stego) {
		return 0.0
	}

	if len(original) == 0 || bitDepth < 2 {
		return 0.0
	}

	var mse float64
	for i := range original {
		diff := float64(original[i]) - float64(stego[i])
		mse += diff * diff
	}
	mse /= float64(len(original))

	// If MSE is 0, signals are identical
	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX / sqrt(MSE)), MAX being the largest signed sample
	maxSignalValue := float64(int(1)<<(bitDepth-1) - 1)
	return 20 * math.Log10(maxSignalValue/math.Sqrt(mse))
}

// ValidatePSNR reports whether psnr meets the threshold. Identical streams
// always pass.
func ValidatePSNR(psnr float64, threshold float64) bool {
	if math.IsInf(psnr, 1) {
		return true
	}
	return psnr >= threshold
}
