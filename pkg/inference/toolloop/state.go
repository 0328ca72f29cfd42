package toolloop

type State int

const (
	StateAwaitingModel State = iota
	StateHandlingResponse
	StateExecutingTools
	StateTurnComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AWAITING_MODEL"
	case StateHandlingResponse:
		return "HANDLING_RESPONSE"
	case StateExecutingTools:
		return "EXECUTING_TOOLS"
	case StateTurnComplete:
		return "TURN_COMPLETE"
	default:
		return "UNKNOWN"
	}
}
