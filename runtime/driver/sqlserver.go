package driver

import (
	"fmt"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/spf13/cast"

	"github.com/satishbabariya/dbal/query"
)

// Parameter options the sqlserver adapter understands.
const (
	// OptionVarChar sends a string as VARCHAR instead of NVARCHAR.
	OptionVarChar = "varchar"
	// OptionMax sends a string as VARCHAR(MAX) or NVARCHAR(MAX).
	OptionMax = "max"
	// OptionDateTime1 sends a time as the legacy DATETIME type.
	OptionDateTime1 = "datetime1"
)

func sqlServerParam(p query.Param, v any) (any, error) {
	varchar := cast.ToBool(p.Options[OptionVarChar])
	wide := cast.ToBool(p.Options[OptionMax])
	datetime1 := cast.ToBool(p.Options[OptionDateTime1])

	switch x := v.(type) {
	case string:
		if datetime1 {
			return nil, fmt.Errorf("option %s needs a time, got string", OptionDateTime1)
		}
		switch {
		case varchar && wide:
			return mssql.VarCharMax(x), nil
		case varchar:
			return mssql.VarChar(x), nil
		case wide:
			return mssql.NVarCharMax(x), nil
		}
	case time.Time:
		if varchar || wide {
			return nil, fmt.Errorf("option %s needs a string, got time", OptionVarChar)
		}
		if datetime1 {
			return mssql.DateTime1(x), nil
		}
	default:
		if varchar || wide || datetime1 {
			return nil, fmt.Errorf("parameter options do not apply to %T", v)
		}
	}
	return v, nil
}
