package engine

import "github.com/lotledger/lotledger/internal/domain"

// partition groups a batch by instrument identifier. Instruments are kept
// in first-seen order so that aggregation is reproducible for identical
// input; executions keep their relative input order within each group.
// Grouping is by the literal identifier string — case-sensitive, no
// normalization.
type partition struct {
	order        []string
	byInstrument map[string][]domain.RawExecution
}

func partitionByInstrument(execs []domain.RawExecution) *partition {
	p := &partition{
		byInstrument: make(map[string][]domain.RawExecution),
	}
	for _, e := range execs {
		if _, ok := p.byInstrument[e.Instrument]; !ok {
			p.order = append(p.order, e.Instrument)
		}
		p.byInstrument[e.Instrument] = append(p.byInstrument[e.Instrument], e)
	}
	return p
}
