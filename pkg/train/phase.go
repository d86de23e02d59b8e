package train

// Phase defines an interface for a generic pipeline step
type Phase interface {
	Name() string
	ShouldRun() bool
	Run() error
}

// PhaseChain is a holder of several phases and an after run step
type PhaseChain struct {
	phases   []Phase
	afterRun func(Phase)
}

// NewPhaseChain creates a new instance of *PhaseChain
func NewPhaseChain() *PhaseChain {
	return &PhaseChain{
		phases: []Phase{},
	}
}

// AddPhase adds a new phase to the chain
func (chain *PhaseChain) AddPhase(phase Phase) {
	chain.phases = append(chain.phases, phase)
}

// SetAfterRun configures the after run function
func (chain *PhaseChain) SetAfterRun(fun func(Phase)) {
	chain.afterRun = fun
}

// Run starts the chain and stops on the first error
func (chain *PhaseChain) Run() error {
	for _, phase := range chain.phases {
		if !phase.ShouldRun() {
			continue
		}

		if err := phase.Run(); err != nil {
			return err
		}

		if chain.afterRun != nil {
			chain.afterRun(phase)
		}
	}

	return nil
}
