package pipeline

import "errors"

var (
	// ErrNoSteps reports an assembly call without a single usable step.
	ErrNoSteps = errors.New("a pipeline requires at least one step")

	// ErrDuplicateName reports two steps resolving to the same final name.
	ErrDuplicateName = errors.New("duplicate step name")

	// ErrEstimatorNotLast reports a predictive step placed before the end of
	// the chain; only the terminal step may predict.
	ErrEstimatorNotLast = errors.New("estimator must be the terminal step")

	// ErrUnknownParameter reports a nested parameter name matching no step
	// or no hyperparameter of the addressed step.
	ErrUnknownParameter = errors.New("unknown nested parameter")

	// ErrLabelLength reports a label vector whose length differs from the
	// sample count.
	ErrLabelLength = errors.New("label length does not match sample count")

	// ErrMissingLabels reports a Score call without true labels.
	ErrMissingLabels = errors.New("score requires true labels")

	// ErrNotTransformable reports a FitTransform call on a chain whose
	// terminal step cannot transform.
	ErrNotTransformable = errors.New("terminal step does not transform")
)
