package core

import "github.com/krether/huddle/internal/domain"

// Channel binds a conduit to its (session, participant) registration.
// Channel identity is pointer identity: the directory uses it to tell
// a live registration from a superseded one.
type Channel struct {
	session     domain.SessionCode
	participant domain.ParticipantID
	conduit     Conduit
}

func NewChannel(session domain.SessionCode, participant domain.ParticipantID, conduit Conduit) *Channel {
	return &Channel{session: session, participant: participant, conduit: conduit}
}

func (ch *Channel) Session() domain.SessionCode { return ch.session }

func (ch *Channel) Participant() domain.ParticipantID { return ch.participant }

func (ch *Channel) TrySend(data []byte) error { return ch.conduit.TrySend(data) }

// Close shuts the underlying conduit. Safe to call more than once.
func (ch *Channel) Close() { ch.conduit.Close() }
