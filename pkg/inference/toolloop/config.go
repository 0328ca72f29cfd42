package toolloop

// LoopConfig bounds the work done for a single turn.
type LoopConfig struct {
	// MaxCorrectiveRetries caps consecutive unreadable replies. The reply after
	// the last allowed retry fails the turn.
	MaxCorrectiveRetries int `json:"max_corrective_retries" yaml:"max_corrective_retries"`
	// MaxToolRounds caps how many tool batches a single turn may run. Zero means no cap.
	MaxToolRounds int `json:"max_tool_rounds" yaml:"max_tool_rounds"`
	// StatefulTransport is set when the engine keeps its own conversation
	// history. Follow-up inputs then carry only the newest message instead of
	// replaying the turn.
	StatefulTransport bool `json:"stateful_transport" yaml:"stateful_transport"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxCorrectiveRetries: 3,
		MaxToolRounds:        10,
	}
}

func (c LoopConfig) WithMaxCorrectiveRetries(n int) LoopConfig {
	c.MaxCorrectiveRetries = n
	return c
}

func (c LoopConfig) WithMaxToolRounds(n int) LoopConfig {
	c.MaxToolRounds = n
	return c
}

func (c LoopConfig) WithStatefulTransport(stateful bool) LoopConfig {
	c.StatefulTransport = stateful
	return c
}
