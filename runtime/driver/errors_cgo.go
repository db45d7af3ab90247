//go:build cgo

package driver

import (
	"errors"
	"strconv"

	"github.com/mattn/go-sqlite3"
)

func init() {
	codeExtractors = append(codeExtractors, func(err error) (string, string, bool) {
		var e sqlite3.Error
		if errors.As(err, &e) {
			return strconv.Itoa(int(e.ExtendedCode)), e.Error(), true
		}
		return "", "", false
	})
	Register(sqlite3Adapter())
}
