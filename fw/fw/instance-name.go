package fw

import (
	"errors"
	"fmt"

	enc "github.com/named-data/kite/std/encoding"
	"github.com/named-data/kite/std/types/optional"
)

// ErrInvalidInstanceName is wrapped by every strategy construction error.
var ErrInvalidInstanceName = errors.New("invalid strategy instance name")

// ErrUnsupportedParameters is returned when an instance name carries parameters
// the strategy does not accept.
type ErrUnsupportedParameters struct {
	Strategy   string
	Parameters enc.Name
}

func (e *ErrUnsupportedParameters) Error() string {
	return fmt.Sprintf("%s does not accept parameters (got %s)", e.Strategy, e.Parameters)
}

func (e *ErrUnsupportedParameters) Unwrap() error {
	return ErrInvalidInstanceName
}

// ErrUnsupportedVersion is returned when an instance name asks for a version
// the strategy does not implement.
type ErrUnsupportedVersion struct {
	Strategy string
	Version  uint64
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("%s does not support version %d", e.Strategy, e.Version)
}

func (e *ErrUnsupportedVersion) Unwrap() error {
	return ErrInvalidInstanceName
}

// ErrUnknownStrategy is returned when no registered strategy matches an instance name.
type ErrUnknownStrategy struct {
	Name enc.Name
}

func (e *ErrUnknownStrategy) Error() string {
	return fmt.Sprintf("unknown strategy %s", e.Name)
}

func (e *ErrUnknownStrategy) Unwrap() error {
	return ErrInvalidInstanceName
}

// ParsedInstanceName is a strategy instance name split into its parts.
type ParsedInstanceName struct {
	// StrategyName is the name up to and including the version, if any
	StrategyName enc.Name
	Version      optional.Optional[uint64]
	// Parameters are the components after the version
	Parameters enc.Name
}

// ParseInstanceName splits an instance name at its last version component.
// Without a version component the whole name is the strategy name.
func ParseInstanceName(input enc.Name) ParsedInstanceName {
	for i := len(input) - 1; i > 0; i-- {
		if input[i].IsVersion() {
			return ParsedInstanceName{
				StrategyName: input.Prefix(i + 1),
				Version:      optional.Some(input[i].NumberVal()),
				Parameters:   input[i+1:],
			}
		}
	}
	return ParsedInstanceName{
		StrategyName: input,
		Version:      optional.None[uint64](),
		Parameters:   enc.Name{},
	}
}

// MakeInstanceName returns input with the version of strategyName appended,
// unless input already carries a version.
func MakeInstanceName(input enc.Name, strategyName enc.Name) enc.Name {
	for _, c := range input {
		if c.IsVersion() {
			return input
		}
	}
	return input.Append(strategyName.At(-1))
}

// checkInstanceName validates input against a strategy that takes no parameters
// and returns the instance name to use.
func checkInstanceName(input enc.Name, strategyName enc.Name, logName string) (enc.Name, error) {
	parsed := ParseInstanceName(input)
	if len(parsed.Parameters) > 0 {
		return nil, &ErrUnsupportedParameters{Strategy: logName, Parameters: parsed.Parameters}
	}
	if version, ok := parsed.Version.Get(); ok && version != strategyName.At(-1).NumberVal() {
		return nil, &ErrUnsupportedVersion{Strategy: logName, Version: version}
	}
	return MakeInstanceName(input, strategyName), nil
}
