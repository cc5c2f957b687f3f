package scene

// Phase is a step of the per-frame render state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTraverseBegin
	PhaseVisit
	PhaseClassify
	PhaseSortAlpha
	PhaseShadow
	PhaseSubmitOpaque
	PhaseSubmitAlpha
	PhaseTraverseEnd
)

var phaseNames = [...]string{
	PhaseIdle:          "idle",
	PhaseTraverseBegin: "traverse_begin",
	PhaseVisit:         "visit",
	PhaseClassify:      "classify",
	PhaseSortAlpha:     "sort_alpha",
	PhaseShadow:        "shadow",
	PhaseSubmitOpaque:  "submit_opaque",
	PhaseSubmitAlpha:   "submit_alpha",
	PhaseTraverseEnd:   "traverse_end",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Phase returns the current phase; PhaseIdle outside Render.
func (s *Scene) Phase() Phase { return s.phase }

// OnPhase installs a hook called on every phase transition.
func (s *Scene) OnPhase(fn func(Phase)) { s.onPhase = fn }

func (s *Scene) setPhase(p Phase) {
	s.phase = p
	if s.onPhase != nil {
		s.onPhase(p)
	}
}
