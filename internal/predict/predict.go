// Package predict scores candidate RNA sites for likelihood of m6A
// modification with a caller-supplied pre-trained classifier.
//
// The pipeline validates the feature schema, re-maps categorical features
// onto their training-time domains, encodes the nucleotide window into
// positional columns, invokes the classifier once per batch, and derives
// a Positive/Negative call from the positive-class probability.
package predict

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/colinzyang/m6APrediction/internal/frame"
	"github.com/colinzyang/m6APrediction/internal/seq"
)

// Required feature columns. Scoring rejects any table that lacks one.
const (
	ColGCContent          = "gc_content"
	ColRNAType            = "RNA_type"
	ColRNARegion          = "RNA_region"
	ColExonLength         = "exon_length"
	ColDistanceToJunction = "distance_to_junction"
	ColConservation       = "evolutionary_conservation"
	ColDNA5mer            = "DNA_5mer"
)

// Derived columns appended by PredictBatch.
const (
	ColProb   = "predicted_m6A_prob"
	ColStatus = "predicted_m6A_status"
)

// RequiredColumns lists the feature columns every input table must carry,
// in schema order.
var RequiredColumns = []string{
	ColGCContent,
	ColRNAType,
	ColRNARegion,
	ColExonLength,
	ColDistanceToJunction,
	ColConservation,
	ColDNA5mer,
}

// Closed categorical domains, in training order. Values outside a domain
// become missing during normalization; the classifier is expected to
// tolerate missing categories the same way it did during training.
var (
	RNATypeLevels   = []string{"mRNA", "lincRNA", "lncRNA", "pseudogene"}
	RNARegionLevels = []string{"CDS", "intron", "3'UTR", "5'UTR"}
	StatusLevels    = []string{"Negative", "Positive"}
)

const (
	StatusPositive = "Positive"
	StatusNegative = "Negative"
)

// DefaultThreshold is the decision cutoff used when the caller has no
// site-specific preference.
const DefaultThreshold = 0.5

// Classifier is the opaque pre-trained model. Given a table whose columns
// match the training-time schema and categorical domains, it returns the
// probability of the Positive class for each row, in row order.
type Classifier interface {
	PredictProba(records *frame.Frame) ([]float64, error)
}

// PredictBatch scores every row of records and returns a new table with
// normalized categorical columns, the encoded positional columns, and the
// two derived columns predicted_m6A_prob and predicted_m6A_status. A row
// is Positive only when its probability strictly exceeds threshold; a
// probability equal to the threshold is Negative.
//
// The input table is not mutated. Either the whole batch succeeds or the
// call fails with no partial result.
func PredictBatch(model Classifier, records *frame.Frame, threshold float64) (*frame.Frame, error) {
	if err := checkSchema(records); err != nil {
		return nil, err
	}

	out := records.Clone()
	normalizeFactor(out, ColRNAType, RNATypeLevels)
	normalizeFactor(out, ColRNARegion, RNARegionLevels)

	kmers, _ := out.Get(ColDNA5mer)
	encoded, err := seq.Encode(kmers.Values())
	if err != nil {
		return nil, err
	}
	for _, name := range encoded.Names() {
		col, _ := encoded.Get(name)
		if err := out.Set(name, col); err != nil {
			return nil, fmt.Errorf("predict: append encoded column: %w", err)
		}
	}

	probs, err := model.PredictProba(out)
	if err != nil {
		return nil, &ClassifierInvocationError{Err: err}
	}
	if len(probs) != out.Rows() {
		return nil, &ClassifierInvocationError{
			Err: fmt.Errorf("classifier returned %d probabilities for %d rows", len(probs), out.Rows()),
		}
	}
	for i, p := range probs {
		if p < 0 || p > 1 || p != p {
			return nil, &ClassifierInvocationError{
				Err: fmt.Errorf("classifier returned invalid probability %f for row %d", p, i),
			}
		}
	}

	status := make([]string, len(probs))
	for i, p := range probs {
		if p > threshold {
			status[i] = StatusPositive
		} else {
			status[i] = StatusNegative
		}
	}

	if err := out.Set(ColProb, frame.Numbers(probs...)); err != nil {
		return nil, err
	}
	if err := out.Set(ColStatus, frame.Factor(status, StatusLevels)); err != nil {
		return nil, err
	}

	log.Debug().
		Int("rows", out.Rows()).
		Float64("threshold", threshold).
		Msg("batch scored")

	return out, nil
}

// Prediction is the pair of derived values for a single site.
type Prediction struct {
	Prob   float64 `json:"predicted_m6A_prob"`
	Status string  `json:"predicted_m6A_status"`
}

// PredictSingle scores one site from scalar features. It builds a one-row
// table, delegates to PredictBatch, and extracts the derived fields, so
// its result is identical to batch scoring the same row.
func PredictSingle(model Classifier, gcContent float64, rnaType, rnaRegion string,
	exonLength, distanceToJunction, conservation float64, dna5mer string,
	threshold float64) (Prediction, error) {

	records := frame.New()
	cols := []struct {
		name string
		col  frame.Column
	}{
		{ColGCContent, frame.Numbers(gcContent)},
		{ColRNAType, frame.Factor([]string{rnaType}, RNATypeLevels)},
		{ColRNARegion, frame.Factor([]string{rnaRegion}, RNARegionLevels)},
		{ColExonLength, frame.Numbers(exonLength)},
		{ColDistanceToJunction, frame.Numbers(distanceToJunction)},
		{ColConservation, frame.Numbers(conservation)},
		{ColDNA5mer, frame.Strings(dna5mer)},
	}
	for _, c := range cols {
		if err := records.Set(c.name, c.col); err != nil {
			return Prediction{}, err
		}
	}

	scored, err := PredictBatch(model, records, threshold)
	if err != nil {
		return Prediction{}, err
	}

	probCol, _ := scored.Get(ColProb)
	statusCol, _ := scored.Get(ColStatus)
	return Prediction{
		Prob:   probCol.Float(0),
		Status: statusCol.Value(0),
	}, nil
}

// checkSchema verifies every required column is present, reporting all
// missing columns at once. It runs before any other work so a malformed
// table never reaches the classifier.
func checkSchema(records *frame.Frame) error {
	var missing []string
	for _, name := range RequiredColumns {
		if !records.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFeatureColumnsError{Columns: missing}
	}
	return nil
}

// normalizeFactor re-maps a column onto a fixed level set. String columns
// and factors with a different level set both collapse onto the training
// domain, with out-of-domain values going missing.
func normalizeFactor(f *frame.Frame, name string, levels []string) {
	col, _ := f.Get(name)
	// Set cannot fail here: the replacement has the same row count.
	_ = f.Set(name, frame.Factor(col.Values(), levels))
}
