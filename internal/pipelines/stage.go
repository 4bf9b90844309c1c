package pipelines

import "fmt"

// PipelineStage is a stage in the build process, used to specify when a
// hook runs. Its text form is lowercase snake case.
type PipelineStage string

const (
	// StagePreBuild runs before asset builds are executed.
	StagePreBuild PipelineStage = "pre_build"
	// StageBuild runs while asset builds are executed.
	StageBuild PipelineStage = "build"
	// StagePostBuild runs after asset builds are executed.
	StagePostBuild PipelineStage = "post_build"
)

// ParseStage validates a stage string from config.
func ParseStage(s string) (PipelineStage, error) {
	var stage PipelineStage
	if err := stage.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return stage, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so stages can be read
// directly from TOML and YAML config.
func (s *PipelineStage) UnmarshalText(text []byte) error {
	switch stage := PipelineStage(text); stage {
	case StagePreBuild, StageBuild, StagePostBuild:
		*s = stage
		return nil
	default:
		return fmt.Errorf("unknown pipeline stage %q (expected pre_build, build or post_build)", text)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s PipelineStage) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

func (s PipelineStage) String() string { return string(s) }
