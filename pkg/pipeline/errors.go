package pipeline

import (
	"fmt"
	"runtime"

	"github.com/gnames/dwcheck/pkg/errcode"
	"github.com/gnames/gn"
)

func TableMissingError(table string) error {
	msg := "Table <em>%s</em> is not loaded"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InputTableMissingError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: table %s is nil", fn.Name(), table),
	}
}
