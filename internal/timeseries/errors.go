package timeseries

import (
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/finance-insights/pkg/datetime"
)

// ErrEmptyData is returned when a caller requires at least one non-zero period
// and the series has none.
var ErrEmptyData = errors.New("no non-zero periods in series")

// InvalidRangeError reports a range whose start is not before its end.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s is not before end %s",
		e.Start.Format(datetime.DayLayout), e.End.Format(datetime.DayLayout))
}
