// Package errcode enumerates the codes carried by user-facing gn.Error
// values.
package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// Input errors
	ReadSourceError
	ParseSourceError
	NoRenderableDocumentsError

	// Configuration errors
	ConfigReadError
	ConfigWriteError
	ConfigInvalidError

	// Export errors
	UnknownFormatError
	FormatParamsError
	FormatNoRecordsError
	WriteOutputError

	// Journal errors
	JournalOpenError
	JournalWriteError
	JournalReadError

	// Metrics errors
	MetricsWriteError
)
