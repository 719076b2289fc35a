// Package stacktrace trims a goroutine stack down to this module's frames so
// panic logs stay short enough to read in a log viewer.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const modulePath = "github.com/fursurecare/otpservice/"

// Internal lists the module frames above the caller of Internal, innermost
// first, as "internal/pkg/x.Func (file.go:42)". skip drops further frames.
func Internal(skip int) []string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		if fn, ok := strings.CutPrefix(f.Function, modulePath); ok {
			out = append(out, fn+" ("+baseName(f.File)+":"+strconv.Itoa(f.Line)+")")
		}
		if !more {
			break
		}
	}

	return out
}

func baseName(file string) string {
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		return file[i+1:]
	}
	return file
}
