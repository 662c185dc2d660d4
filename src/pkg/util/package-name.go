package util

import (
	"runtime"
	"strings"
)

/*
GetPackageName returns the short name of the package that called it,
e.g. "ocr" for a call made from receipt-digitizer/src/pkg/ocr.

Used by config initializers so their log lines say which section they are
filling in. Returns "unknown" if the caller cannot be resolved.
*/
func GetPackageName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return packageFromFuncName(fn.Name())
}

// packageFromFuncName turns "a/b/pkg.Func.func1" or "a/b/pkg.(*T).M" into "pkg".
func packageFromFuncName(name string) string {
	lastSlash := strings.LastIndex(name, "/")
	rest := name[lastSlash+1:]
	if dot := strings.Index(rest, "."); dot >= 0 {
		rest = rest[:dot]
	}
	return rest
}
