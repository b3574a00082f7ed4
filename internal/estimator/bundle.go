package estimator

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

const BundleFormatVersion = 1

var ErrIncompatibleBundle = errors.New("incompatible model bundle")

func init() {
	gob.RegisterName("phishdetector.LogisticRegression", &LogisticRegression{})
	gob.RegisterName("phishdetector.RidgeClassifier", &RidgeClassifier{})
	gob.RegisterName("phishdetector.RandomForestClassifier", &RandomForestClassifier{})
	gob.RegisterName("phishdetector.LinearSVC", &LinearSVC{})
	gob.RegisterName("phishdetector.KNeighborsClassifier", &KNeighborsClassifier{})
}

// TrialSummary identifies the trial a bundled model came from.
type TrialSummary struct {
	Family        Family
	Params        Params
	MeanTestScore float64
	StdTestScore  float64
	MeanFitTime   float64
}

// Bundle is the persisted model: a fitted pipeline plus everything needed to
// feed it data at inference time. It holds no maps, so encoding a decoded
// bundle reproduces the original bytes.
type Bundle struct {
	FormatVersion int
	FeatureNames  []string
	Label         string
	Classes       []int
	Pipeline      *Pipeline
	BestTrial     TrialSummary
}

func EncodeBundle(w io.Writer, b *Bundle) error {
	if b == nil || b.Pipeline == nil {
		return fmt.Errorf("cannot encode an empty model bundle")
	}
	if err := gob.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("error encoding model bundle: %w", err)
	}
	return nil
}

func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := gob.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("error decoding model bundle: %w", err)
	}
	if b.FormatVersion != BundleFormatVersion {
		return nil, fmt.Errorf("%w: format version %d, expected %d", ErrIncompatibleBundle, b.FormatVersion, BundleFormatVersion)
	}
	if b.Pipeline == nil || b.Pipeline.Model == nil {
		return nil, fmt.Errorf("%w: bundle has no fitted model", ErrIncompatibleBundle)
	}
	return &b, nil
}
