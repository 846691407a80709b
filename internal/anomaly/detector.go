// Package anomaly flags records whose amount deviates from the recent history
// of their peer group.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-insights/internal/records"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
	"go.uber.org/zap"
)

// Severity grades how far a record deviates from its baseline.
type Severity string

const (
	Low    Severity = "low"
	Medium Severity = "medium"
	High   Severity = "high"
)

// GroupBy selects the peer group a record is compared against.
type GroupBy string

const (
	ByCategory GroupBy = "category"
	ByService  GroupBy = "service"
)

// recordNamespace seeds the deterministic references of records without an id.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("finance-insights/monetary-record"))

// Anomaly is a record that deviates from its peer baseline.
type Anomaly struct {
	RecordRef        string       `json:"recordRef"`
	Date             string       `json:"date"`
	Group            string       `json:"group"`
	Kind             records.Kind `json:"kind"`
	ExpectedAmount   float64      `json:"expectedAmount"`
	ActualAmount     float64      `json:"actualAmount"`
	DeviationPercent float64      `json:"deviationPercent"`
	ZScore           float64      `json:"zScore"`
	Severity         Severity     `json:"severity"`
}

// Options holds the detection policy. Zero values select the defaults.
type Options struct {
	BaselineWindow    int
	ZThreshold        float64
	MinHistory        int
	GroupBy           GroupBy
	MediumSeverityPct float64
	HighSeverityPct   float64
}

func (o Options) withDefaults() Options {
	if o.BaselineWindow <= 0 {
		o.BaselineWindow = constants.DefaultBaselineWindow
	}
	if o.ZThreshold <= 0 {
		o.ZThreshold = constants.DefaultZThreshold
	}
	if o.MinHistory <= 0 {
		o.MinHistory = constants.DefaultMinHistory
	}
	if o.GroupBy == "" {
		o.GroupBy = ByCategory
	}
	if o.MediumSeverityPct <= 0 {
		o.MediumSeverityPct = constants.DefaultMediumSeverityPct
	}
	if o.HighSeverityPct <= 0 {
		o.HighSeverityPct = constants.DefaultHighSeverityPct
	}
	return o
}

// Detector compares each record with the trailing records of its group.
type Detector struct {
	logger *zap.Logger
	opts   Options
}

// NewDetector creates a detector with the given policy.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewDetector(logger *zap.Logger, opts Options) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{logger: logger, opts: opts.withDefaults()}
}

// Classify maps an absolute deviation percentage to a severity.
func (d *Detector) Classify(deviationPct float64) Severity {
	abs := math.Abs(deviationPct)
	switch {
	case abs >= d.opts.HighSeverityPct:
		return High
	case abs >= d.opts.MediumSeverityPct:
		return Medium
	default:
		return Low
	}
}

type indexedRecord struct {
	position int
	record   records.MonetaryRecord
}

// Detect walks each group chronologically. A record is flagged when it lies
// more than ZThreshold sample standard deviations from the mean of the
// previous BaselineWindow records of its group. Records with fewer than
// MinHistory predecessors are never flagged. Results are ordered by date,
// then by input position.
func (d *Detector) Detect(recs []records.MonetaryRecord) []Anomaly {
	groups := make(map[string][]indexedRecord)
	var keys []string
	for i, r := range recs {
		key := d.groupKey(r)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], indexedRecord{position: i, record: r})
	}
	sort.Strings(keys)

	type flagged struct {
		position int
		date     time.Time
		anomaly  Anomaly
	}
	var found []flagged

	for _, key := range keys {
		members := groups[key]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].record.Date.Before(members[j].record.Date)
		})

		for i, m := range members {
			lo := i - d.opts.BaselineWindow
			if lo < 0 {
				lo = 0
			}
			if i-lo < d.opts.MinHistory {
				continue
			}
			history := make([]float64, 0, i-lo)
			for _, h := range members[lo:i] {
				history = append(history, h.record.Float())
			}

			expected := mathutil.Mean(history)
			stddev := mathutil.SampleStdDev(history)
			actual := m.record.Float()
			diff := actual - expected
			if math.Abs(diff) <= d.opts.ZThreshold*stddev {
				continue
			}

			deviation := mathutil.CalculatePercentage(diff, expected)
			a := Anomaly{
				RecordRef:        recordRef(m.record, m.position),
				Date:             m.record.Date.Format(datetime.DayLayout),
				Group:            key,
				Kind:             m.record.Kind,
				ExpectedAmount:   mathutil.Round(expected),
				ActualAmount:     mathutil.Round(actual),
				DeviationPercent: mathutil.Round(deviation),
				ZScore:           mathutil.Round(mathutil.SafeDivide(diff, stddev)),
				Severity:         d.Classify(deviation),
			}
			found = append(found, flagged{position: m.position, date: m.record.Date, anomaly: a})

			d.logger.Debug("record flagged",
				zap.String("op", "anomaly.Detect"),
				zap.String("record", a.RecordRef),
				zap.String("group", key),
				zap.Float64("deviationPercent", a.DeviationPercent),
				zap.String("severity", string(a.Severity)),
			)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].date.Equal(found[j].date) {
			return found[i].date.Before(found[j].date)
		}
		return found[i].position < found[j].position
	})

	out := make([]Anomaly, len(found))
	for i, f := range found {
		out[i] = f.anomaly
	}
	return out
}

// Detect flags records using the default policy with the given baseline
// window and z threshold.
func Detect(recs []records.MonetaryRecord, baselineWindow int, zThreshold float64) []Anomaly {
	return NewDetector(nil, Options{BaselineWindow: baselineWindow, ZThreshold: zThreshold}).Detect(recs)
}

func (d *Detector) groupKey(r records.MonetaryRecord) string {
	if d.opts.GroupBy == ByService {
		return fmt.Sprintf("%s/%s", r.Kind, r.Service())
	}
	category := r.Category
	if category == "" {
		category = "uncategorized"
	}
	return fmt.Sprintf("%s/%s", r.Kind, category)
}

// recordRef returns the record id or, when absent, a UUIDv5 derived from
// the record's content and input position.
func recordRef(r records.MonetaryRecord, position int) string {
	if r.ID != "" {
		return r.ID
	}
	name := fmt.Sprintf("%d|%s|%s|%s|%s|%s", position, r.Date.Format(datetime.DayLayout),
		r.Amount.String(), r.Kind, r.ServiceID, r.Category)
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

// Summary counts anomalies by severity.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Summarize counts anomalies by severity.
func Summarize(anomalies []Anomaly) Summary {
	s := Summary{Total: len(anomalies)}
	for _, a := range anomalies {
		switch a.Severity {
		case High:
			s.High++
		case Medium:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}
