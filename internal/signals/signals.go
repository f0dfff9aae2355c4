package signals

// Name identifies a signal on the bus. The string values are part of the
// wiring contract between modules and must not change.
type Name string

const (
	NameLoadingComplete   Name = "loading-complete"
	NameLoadingFailed     Name = "loading-failed"
	NameConnectToServer   Name = "connect-to-server"
	NameConnectedToServer Name = "connected-to-server"
	NameStartAuth         Name = "start-auth"
	NameSetUserID         Name = "set-user-id"
	NameAuthComplete      Name = "auth-complete"
	NameChangeGame        Name = "change-game"
	NameGameChanged       Name = "game-changed"
	NameSoundToggle       Name = "sound-toggle"
)

// Signal is a named event with its own payload shape. Every payload struct
// below is one variant.
type Signal interface {
	SignalName() Name
}

// LoadingComplete is emitted by the asset loader once every category loaded.
type LoadingComplete struct{}

// LoadingFailed is emitted by the asset loader when a load pass fails.
type LoadingFailed struct {
	Message string
	Details error
}

// ConnectToServer asks the connection module to dial the lobby.
type ConnectToServer struct{}

// ConnectedToServer reports a usable connection.
type ConnectedToServer struct{}

// StartAuth asks the orchestrator to hand over the user id.
type StartAuth struct{}

// SetUserID carries the user id to authenticate with.
type SetUserID struct {
	UserID string
}

// AuthComplete reports the authenticated user id.
type AuthComplete struct {
	UserID string
}

// ChangeGame requests a game switch. An empty Game selects the default game.
type ChangeGame struct {
	Game string
}

// GameChanged reports the game now being played.
type GameChanged struct {
	Game string
}

// SoundToggle enables or mutes all sound.
type SoundToggle struct {
	Enabled bool
}

func (LoadingComplete) SignalName() Name   { return NameLoadingComplete }
func (LoadingFailed) SignalName() Name     { return NameLoadingFailed }
func (ConnectToServer) SignalName() Name   { return NameConnectToServer }
func (ConnectedToServer) SignalName() Name { return NameConnectedToServer }
func (StartAuth) SignalName() Name         { return NameStartAuth }
func (SetUserID) SignalName() Name         { return NameSetUserID }
func (AuthComplete) SignalName() Name      { return NameAuthComplete }
func (ChangeGame) SignalName() Name        { return NameChangeGame }
func (GameChanged) SignalName() Name       { return NameGameChanged }
func (SoundToggle) SignalName() Name       { return NameSoundToggle }
