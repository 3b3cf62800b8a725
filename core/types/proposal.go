package types

// MinProposalConfidence is the threshold under which an evaluator does not
// contribute at all.
const MinProposalConfidence = 0.1

// Proposal is a single evaluator's suggested contribution to the current
// turn. Payload is opaque at this layer and is decoded only by the stage
// that matches on Module.
type Proposal struct {
	Module     string       `json:"module"`
	Confidence float64      `json:"confidence"`
	Priority   int          `json:"priority"`
	Payload    ActionParams `json:"payload"`
	Reasoning  string       `json:"reasoning"`
}

// Contributes reports whether the proposal passes the opt-out rule:
// confidence at least MinProposalConfidence and a non-empty payload.
func (p Proposal) Contributes() bool {
	return p.Confidence >= MinProposalConfidence && len(p.Payload) > 0
}
