package lifecycle

// State is one step of the showcase lifecycle. The values are the wire names
// used in logs and metrics.
type State string

const (
	Initial            State = "initial"
	LoadingAssets      State = "loadingAssets"
	LoadingComplete    State = "loadingComplete"
	ConnectingToServer State = "connectingToServer"
	AuthStarted        State = "authStarted"
	AuthComplete       State = "authComplete"
	Initialized        State = "initialized"
	ChangeGame         State = "changeGame"
	PlayGame           State = "playGame"
)

// States lists every state in lifecycle order.
var States = []State{
	Initial,
	LoadingAssets,
	LoadingComplete,
	ConnectingToServer,
	AuthStarted,
	AuthComplete,
	Initialized,
	ChangeGame,
	PlayGame,
}

func (s State) String() string { return string(s) }

// Flow is one candidate transition: the target state and the guard that must
// hold for it to be taken. A nil guard always passes.
type Flow struct {
	Next State
	When func() bool
}

// StateConfig lists the candidate transitions out of State in priority
// order.
type StateConfig struct {
	State State
	Flows []Flow
}

// Always is the guard of an unconditional transition.
func Always() bool { return true }

// DefaultTable is the boot sequence of the showcase: load assets, connect,
// authenticate, then loop between picking and playing a game.
func DefaultTable() []StateConfig {
	return []StateConfig{
		{State: Initial, Flows: []Flow{{Next: LoadingAssets, When: Always}}},
		{State: LoadingAssets, Flows: []Flow{{Next: LoadingComplete, When: Always}}},
		{State: LoadingComplete, Flows: []Flow{{Next: ConnectingToServer, When: Always}}},
		{State: ConnectingToServer, Flows: []Flow{{Next: AuthStarted, When: Always}}},
		{State: AuthStarted, Flows: []Flow{{Next: AuthComplete, When: Always}}},
		{State: AuthComplete, Flows: []Flow{{Next: Initialized, When: Always}}},
		{State: Initialized, Flows: []Flow{{Next: ChangeGame, When: Always}}},
		{State: ChangeGame, Flows: []Flow{{Next: PlayGame, When: Always}}},
		{State: PlayGame, Flows: []Flow{{Next: ChangeGame, When: Always}}},
	}
}
