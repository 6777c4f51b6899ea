package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError
	RemoveFileError

	// Logging errors
	CreateLogFileError

	// Input errors
	InputFileError
	InputHeaderError
	InputTableMissingError

	// Name cache errors
	NameCacheOpenError

	// Report errors
	ReportFormatError
	ReportWriteError

	// Validation outcome
	ValidationFailedError
)
