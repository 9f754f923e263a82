package model

import "errors"

// ErrNoIncreases is returned by boundary layers when every document in a
// run came back without a single usable wage increase. The core pipeline
// itself never fails a run for this; it always returns the full
// AnalysisRun.
var ErrNoIncreases = errors.New("analyse heeft geen bruikbare loonsverhogingen opgeleverd")
