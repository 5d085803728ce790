package stage

import (
	"fmt"

	"quill/internal/services"
)

// CheckResult verifies that result has the type the named stage must
// produce. A mismatch is a stage failure.
func CheckResult(name string, result Result) error {
	ok := false
	switch name {
	case NameDetective:
		p, isProfile := result.(*Profile)
		ok = isProfile && p != nil
	case NameCTO:
		a, isAnalysis := result.(*Analysis)
		ok = isAnalysis && a != nil
	case NameGhostwriter:
		d, isDocument := result.(*Document)
		ok = isDocument && d != nil
	default:
		return services.Wrap(services.ErrStageFailure, name, "check result", "unknown stage", nil)
	}
	if !ok {
		return services.Wrap(services.ErrStageFailure, name, "check result",
			fmt.Sprintf("unexpected result type %T", result), nil)
	}
	return nil
}
