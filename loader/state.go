package loader

// State is a module's position in the lifecycle.
// States only advance; Evaluated and Failed are terminal.
type State int32

const (
	StateUnlinked State = iota
	StateLinking
	StateLinked
	StateInstantiating
	StateInstantiated
	StateEvaluating
	StateEvaluated
	StateFailed
)

var stateNames = [...]string{
	StateUnlinked:      "unlinked",
	StateLinking:       "linking",
	StateLinked:        "linked",
	StateInstantiating: "instantiating",
	StateInstantiated:  "instantiated",
	StateEvaluating:    "evaluating",
	StateEvaluated:     "evaluated",
	StateFailed:        "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateEvaluated || s == StateFailed
}
