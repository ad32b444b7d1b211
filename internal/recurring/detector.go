package recurring

import (
	"math"
	"sort"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
)

// Input is a normalized transaction paired with the category it ended up with.
type Input struct {
	Category    model.Category
	Transaction model.Transaction
}

// Stats summarizes what a detection pass considered and discarded.
type Stats struct {
	Considered    int
	Groups        int
	Clusters      int
	TooFew        int
	NoCadence     int
	Contracts     int
	ExcludedInput int
}

// Option configures a Detector.
type Option func(*Detector)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(d *Detector) {
		d.settings = s
	}
}

// WithIDGenerator assigns ids to emitted contracts, e.g. uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(d *Detector) {
		d.newID = fn
	}
}

// Detector finds recurring outgoing payments that no structured record
// explains. It holds no state between calls.
type Detector struct {
	newID    func() string
	settings Settings
}

// NewDetector creates a detector with default settings unless overridden.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{settings: DefaultSettings()}
	for _, opt := range opts {
		opt(d)
	}
	if len(d.settings.Bands) == 0 {
		d.settings.Bands = DefaultBands()
	}
	if d.settings.MinOccurrences < 2 {
		d.settings.MinOccurrences = 2
	}
	return d
}

// Settings returns the active settings.
func (d *Detector) Settings() Settings {
	return d.settings
}

var defaultDetector = NewDetector()

// Detect runs the default detector.
func Detect(inputs []Input) []model.DetectedContract {
	return defaultDetector.Detect(inputs)
}

// Detect returns contract candidates sorted by descending confidence.
func (d *Detector) Detect(inputs []Input) []model.DetectedContract {
	contracts, _ := d.DetectWithStats(inputs)
	return contracts
}

// DetectWithStats is Detect plus counters for logging.
func (d *Detector) DetectWithStats(inputs []Input) ([]model.DetectedContract, Stats) {
	var stats Stats

	groups := make(map[string][]Input)
	for _, in := range inputs {
		if !in.Transaction.IsDebit() || IsExplained(in.Category) {
			stats.ExcludedInput++
			continue
		}
		key := CounterpartyKey(in.Transaction.Counterparty)
		if key == "" {
			stats.ExcludedInput++
			continue
		}
		stats.Considered++
		groups[key] = append(groups[key], in)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	stats.Groups = len(keys)

	contracts := make([]model.DetectedContract, 0)
	for _, key := range keys {
		group := groups[key]
		if len(group) < d.settings.MinOccurrences {
			stats.TooFew++
			continue
		}
		sortByDate(group)

		for _, cluster := range greedyClusters(group, d.settings.AmountTolerance) {
			stats.Clusters++
			if len(cluster) < d.settings.MinOccurrences {
				stats.TooFew++
				continue
			}
			contract, ok := d.evaluate(key, cluster)
			if !ok {
				stats.NoCadence++
				continue
			}
			contracts = append(contracts, contract)
		}
	}

	sort.SliceStable(contracts, func(i, j int) bool {
		a, b := contracts[i], contracts[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.CounterpartyKey != b.CounterpartyKey {
			return a.CounterpartyKey < b.CounterpartyKey
		}
		return a.FirstSeen.Before(b.FirstSeen)
	})
	stats.Contracts = len(contracts)

	return contracts, stats
}

// evaluate turns a date-sorted cluster into a contract if its cadence falls
// into a known band.
func (d *Detector) evaluate(key string, cluster []Input) (model.DetectedContract, bool) {
	gaps := dayGaps(cluster)
	meanGap := mean(gaps)

	frequency, ok := classify(meanGap, d.settings.Bands)
	if !ok {
		return model.DetectedContract{}, false
	}

	amounts := make([]float64, len(cluster))
	for i, in := range cluster {
		amounts[i] = in.Transaction.AbsAmount()
	}

	anchor := cluster[0].Transaction
	target := routeCluster(cluster)

	contract := model.DetectedContract{
		TenantID:        anchor.TenantID,
		CounterpartyKey: key,
		Counterparty:    anchor.Counterparty,
		Frequency:       frequency,
		Target:          target,
		TargetLabel:     target.Label(),
		AverageAmount:   common.RoundCents(mean(amounts)),
		IntervalDays:    int(math.Round(meanGap)),
		Occurrences:     len(cluster),
		FirstSeen:       anchor.Date,
		LastSeen:        cluster[len(cluster)-1].Transaction.Date,
		Confidence:      d.confidence(len(cluster), gaps),
		SampleIDs:       sampleIDs(cluster, d.settings.MaxSamples),
		Selected:        true,
	}
	if d.newID != nil {
		contract.ID = d.newID()
	}

	return contract, true
}

// confidence starts at the base, rises per occurrence beyond the minimum and
// falls with interval irregularity, clamped to the configured range.
func (d *Detector) confidence(occurrences int, gaps []float64) float64 {
	s := d.settings
	score := s.BaseConfidence +
		s.OccurrenceBonus*float64(occurrences-s.MinOccurrences) -
		s.IrregularityPenalty*meanAbsDeviation(gaps)
	return common.Clamp(score, s.MinConfidence, s.MaxConfidence)
}

func sampleIDs(cluster []Input, limit int) []string {
	n := len(cluster)
	if limit > 0 && n > limit {
		n = limit
	}
	ids := make([]string, 0, n)
	for _, in := range cluster[:n] {
		ids = append(ids, in.Transaction.ID)
	}
	return ids
}
