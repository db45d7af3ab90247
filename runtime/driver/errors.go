package driver

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
)

var (
	ErrConnectionFailure       = errors.New("connection failure")
	ErrExecutionFailure        = errors.New("execution failure")
	ErrPrepareStatementFailure = errors.New("prepare statement failure")
	ErrUnsupportedAdapter      = errors.New("unsupported adapter")
	// ErrNoMoreRows is returned by Fetch once the result set is exhausted.
	ErrNoMoreRows = errors.New("no more rows")
	// ErrNotScrollable is returned for cursor movements other than next on a
	// forward only statement.
	ErrNotScrollable = errors.New("statement is not scrollable")
	ErrNoQuery       = errors.New("no query set")
)

// ConnectionFailureError reports a failure to open or re-open a connection.
type ConnectionFailureError struct {
	Adapter string
	Err     error
}

func (e *ConnectionFailureError) Error() string {
	return fmt.Sprintf("driver: could not connect to %s: %v", e.Adapter, e.Err)
}

func (e *ConnectionFailureError) Unwrap() error { return e.Err }

func (e *ConnectionFailureError) Is(target error) bool { return target == ErrConnectionFailure }

// ExecutionFailureError reports a statement the backend refused to run.
type ExecutionFailureError struct {
	SQL string
	// Message and Code are the backend's error text and native code. Code
	// is empty when the client library does not expose one.
	Message string
	Code    string
	Err     error
}

func newExecutionFailure(sql string, err error) *ExecutionFailureError {
	code, msg := backendError(err)
	return &ExecutionFailureError{SQL: sql, Message: msg, Code: code, Err: err}
}

func (e *ExecutionFailureError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("driver: execute %q: %s (%s)", e.SQL, e.Message, e.Code)
	}
	return fmt.Sprintf("driver: execute %q: %s", e.SQL, e.Message)
}

func (e *ExecutionFailureError) Unwrap() error { return e.Err }

func (e *ExecutionFailureError) Is(target error) bool { return target == ErrExecutionFailure }

// PrepareStatementFailureError reports a statement the backend could not
// prepare.
type PrepareStatementFailureError struct {
	SQL string
	Err error
}

func (e *PrepareStatementFailureError) Error() string {
	return fmt.Sprintf("driver: prepare %q: %v", e.SQL, e.Err)
}

func (e *PrepareStatementFailureError) Unwrap() error { return e.Err }

func (e *PrepareStatementFailureError) Is(target error) bool {
	return target == ErrPrepareStatementFailure
}

// codeExtractors pull a native code out of client errors. Builds with cgo
// add the mattn/go-sqlite3 extractor.
var codeExtractors = []func(error) (code, msg string, ok bool){
	func(err error) (string, string, bool) {
		var e *mysql.MySQLError
		if errors.As(err, &e) {
			return strconv.Itoa(int(e.Number)), e.Message, true
		}
		return "", "", false
	},
	func(err error) (string, string, bool) {
		var e *pq.Error
		if errors.As(err, &e) {
			return string(e.Code), e.Message, true
		}
		return "", "", false
	},
	func(err error) (string, string, bool) {
		var e mssql.Error
		if errors.As(err, &e) {
			return strconv.Itoa(int(e.Number)), e.Message, true
		}
		return "", "", false
	},
	func(err error) (string, string, bool) {
		var e *sqlite.Error
		if errors.As(err, &e) {
			return strconv.Itoa(e.Code()), e.Error(), true
		}
		return "", "", false
	},
}

func backendError(err error) (code, msg string) {
	if err == nil {
		return "", ""
	}
	for _, extract := range codeExtractors {
		if code, msg, ok := extract(err); ok {
			return code, msg
		}
	}
	return "", err.Error()
}
