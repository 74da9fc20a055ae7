package scenario

import "github.com/rotisserie/eris"

// Failures surfaced to callers. Match with eris.Is or errors.Is.
var (
	ErrTemplateNotFound   = eris.New("scenario: template not found")
	ErrStageNotFound      = eris.New("scenario: stage not found")
	ErrScenarioNotFound   = eris.New("scenario: scenario not found")
	ErrParameterNotFound  = eris.New("scenario: parameter not found")
	ErrIncompleteScenario = eris.New("scenario: incomplete scenario")
	ErrComputeInProgress  = eris.New("scenario: computation already in progress")
	ErrNoResults          = eris.New("scenario: no completed computation")
	ErrInvalidValue       = eris.New("scenario: invalid parameter value")
)
