package gameplay

import "time"

// Session is a game owned by one player account, as stored between calls.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Names labels the two marks for display.
type Names struct {
	X string `json:"X"`
	O string `json:"O"`
}

// View is a session as shown to its owner.
type View struct {
	ID      string   `json:"id"`
	Players Names    `json:"players"`
	State   Snapshot `json:"state"`
}

// View renders the session for the UI. PlayerB is named after whoever
// currently controls it.
func (s *Session) View() View {
	names := Names{X: s.OwnerName, O: "player 2"}
	if s.State.Mode == PvC {
		names.O = "computer"
	}
	return View{
		ID:      s.ID,
		Players: names,
		State:   newSnapshot(s.State),
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	if s.State.LastMove != nil {
		move := *s.State.LastMove
		c.State.LastMove = &move
	}
	return &c
}
