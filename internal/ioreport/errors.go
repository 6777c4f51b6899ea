package ioreport

import (
	"fmt"
	"runtime"

	"github.com/gnames/dwcheck/pkg/errcode"
	"github.com/gnames/gn"
)

func FormatError(format string) error {
	msg := "Unknown report format <em>%s</em>, use text, json or yaml"
	vars := []any{format}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ReportFormatError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: unknown format %q", fn.Name(), format),
	}
}

func WriteError(format string, err error) error {
	msg := "Cannot write <em>%s</em> report"
	vars := []any{format}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ReportWriteError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot write report: %w", fn.Name(), err),
	}
}
