package iocsv

import (
	"fmt"
	"runtime"

	"github.com/gnames/dwcheck/pkg/errcode"
	"github.com/gnames/gn"
)

func ReadFileError(path string, err error) error {
	msg := "Cannot read <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot read %s: %w", fn.Name(), path, err),
	}
}

func ParseFileError(path string, err error) error {
	msg := "Cannot parse <em>%s</em> as a table"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InputFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot parse %s: %w", fn.Name(), path, err),
	}
}

func HeaderError(path, problem string) error {
	msg := "Bad header in <em>%s</em>: %s"
	vars := []any{path, problem}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InputHeaderError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: header of %s: %s", fn.Name(), path, problem),
	}
}

func TableNotFoundError(dir, table string) error {
	msg := "Cannot find <em>%s</em> table in %s"
	vars := []any{table, dir}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InputTableMissingError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: no %s file in %s", fn.Name(), table, dir),
	}
}
