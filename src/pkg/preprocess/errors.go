package preprocess

import "fmt"

// ImageDecodeError means the source bytes could not be read or decoded.
// It is fatal for that image only.
type ImageDecodeError struct {
	Source string
	Err    error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decode image '%s': %v", e.Source, e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// InvalidParameterError means a stage got a parameter that breaks its structural
// constraints. It is raised before any work is done.
type InvalidParameterError struct {
	Stage  string
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v: %s", e.Stage, e.Param, e.Value, e.Reason)
}

func requireOddPositive(stage, param string, value int) error {
	if value <= 0 || value%2 == 0 {
		return &InvalidParameterError{Stage: stage, Param: param, Value: value, Reason: "must be an odd positive integer"}
	}
	return nil
}

func requireGray(stage string, r *Raster) error {
	if r.Channels != 1 {
		return &InvalidParameterError{Stage: stage, Param: "channels", Value: r.Channels, Reason: "grayscale input required"}
	}
	return nil
}
