package bench

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/pbnjay/memory"
	"golang.org/x/sys/cpu"
)

// ErrInsufficientMemory is returned when the operands cannot fit in RAM.
var ErrInsufficientMemory = errors.New("insufficient memory")

// RequiredBytes is the memory held by both operands and one product.
func RequiredBytes(rows, inner, cols, elemSize int) uint64 {
	return uint64(rows*inner+inner*cols+rows*cols) * uint64(elemSize)
}

// CheckMemory fails when need exceeds the machine's total memory. An
// unknown total (0) is not an error.
func CheckMemory(need uint64) error {
	total := memory.TotalMemory()
	if total == 0 || need <= total {
		return nil
	}
	return fmt.Errorf("need %d MiB, machine has %d MiB: %w", need>>20, total>>20, ErrInsufficientMemory)
}

// CPUFeatures lists the SIMD extensions relevant to matmul kernels.
func CPUFeatures() []string {
	var f []string
	switch runtime.GOARCH {
	case "amd64", "386":
		for _, x := range []struct {
			ok   bool
			name string
		}{
			{cpu.X86.HasSSE41, "SSE4.1"},
			{cpu.X86.HasAVX, "AVX"},
			{cpu.X86.HasAVX2, "AVX2"},
			{cpu.X86.HasFMA, "FMA"},
			{cpu.X86.HasAVX512F, "AVX512F"},
		} {
			if x.ok {
				f = append(f, x.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			f = append(f, "NEON")
		}
		if cpu.ARM64.HasFPHP {
			f = append(f, "FP16")
		}
		if cpu.ARM64.HasSVE {
			f = append(f, "SVE")
		}
	}
	return f
}

// SystemInfo returns a one-line description of the host.
func SystemInfo() string {
	features := CPUFeatures()
	if len(features) == 0 {
		features = []string{"scalar"}
	}
	return fmt.Sprintf("%s/%s cpus=%d mem=%dMiB simd=%s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), memory.TotalMemory()>>20, strings.Join(features, ","))
}
