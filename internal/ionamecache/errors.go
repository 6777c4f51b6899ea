package ionamecache

import (
	"fmt"
	"runtime"

	"github.com/gnames/dwcheck/pkg/errcode"
	"github.com/gnames/gn"
)

func OpenError(path string, err error) error {
	msg := "Cannot open name cache <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.NameCacheOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open %s: %w", fn.Name(), path, err),
	}
}
