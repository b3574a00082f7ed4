package estimator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnknownFamily  = errors.New("unknown estimator family")
	ErrUnknownParam   = errors.New("unknown hyperparameter")
	ErrInvalidParam   = errors.New("invalid hyperparameter value")
	ErrNotFitted      = errors.New("estimator is not fitted")
	ErrTooFewClasses  = errors.New("training data must contain at least two classes")
	ErrTooManyClasses = errors.New("estimator supports binary classification only")
)

// Family identifies a model type. It is assigned when a trial is created and
// is never derived from the formatted estimator.
type Family string

const (
	Logistic     Family = "Logistic"
	Ridge        Family = "Ridge"
	RandomForest Family = "RandomForest"
	SVC          Family = "SVC"
	KNeighbors   Family = "KNeighbors"
)

var families = []struct {
	family     Family
	configName string
	typeName   string
}{
	{Logistic, "logistic_regression", "LogisticRegression"},
	{Ridge, "ridge_classifier", "RidgeClassifier"},
	{RandomForest, "random_forest", "RandomForestClassifier"},
	{SVC, "svc", "SVC"},
	{KNeighbors, "k_neighbors", "KNeighborsClassifier"},
}

// ParseFamily accepts the configuration name of an estimator
// (e.g. "logistic_regression") or the family name itself.
func ParseFamily(name string) (Family, error) {
	for _, f := range families {
		if name == f.configName || name == string(f.family) || name == f.typeName {
			return f.family, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnknownFamily, name)
}

func (f Family) TypeName() string {
	for _, entry := range families {
		if entry.family == f {
			return entry.typeName
		}
	}
	return string(f)
}

func (f Family) Valid() bool {
	_, err := ParseFamily(string(f))
	return err == nil
}

type Classifier interface {
	Fit(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
}

// New constructs an unfitted classifier of the given family. Parameter names
// and values are checked here, so an incompatible combination fails before
// any fitting starts.
func New(family Family, params Params) (Classifier, error) {
	switch family {
	case Logistic:
		return newLogisticRegression(params)
	case Ridge:
		return newRidgeClassifier(params)
	case RandomForest:
		return newRandomForestClassifier(params)
	case SVC:
		return newLinearSVC(params)
	case KNeighbors:
		return newKNeighborsClassifier(params)
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownFamily, family)
	}
}
