package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krether/huddle/internal/domain"
)

type nopConduit struct{}

func (nopConduit) TrySend([]byte) error { return nil }
func (nopConduit) Close()               {}

func testChannel(code, p string) *Channel {
	return NewChannel(domain.SessionCode(code), domain.ParticipantID(p), nopConduit{})
}

func TestDirectoryRegisterAndLookup(t *testing.T) {
	d := NewDirectory()

	require.Nil(t, d.Register(testChannel("s1", "alice")))
	require.Nil(t, d.Register(testChannel("s1", "bob")))
	require.Nil(t, d.Register(testChannel("s2", "carol")))

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 2, d.MemberCount("s1"))
	assert.ElementsMatch(t, []domain.ParticipantID{"alice", "bob"}, d.Members("s1"))
	assert.ElementsMatch(t, []domain.ParticipantID{"carol"}, d.Members("s2"))

	code, ok := d.SessionOf("bob")
	require.True(t, ok)
	assert.Equal(t, domain.SessionCode("s1"), code)

	ch, ok := d.Channel("carol")
	require.True(t, ok)
	assert.Equal(t, domain.ParticipantID("carol"), ch.Participant())

	_, ok = d.Channel("nobody")
	assert.False(t, ok)
	assert.Empty(t, d.Members("unknown"))
}

func TestDirectoryRegisterReplacesSamePair(t *testing.T) {
	d := NewDirectory()
	first := testChannel("s1", "alice")
	second := testChannel("s1", "alice")

	require.Nil(t, d.Register(first))
	superseded := d.Register(second)
	require.Same(t, first, superseded)

	assert.Equal(t, 1, d.MemberCount("s1"))
	live, ok := d.Channel("alice")
	require.True(t, ok)
	assert.Same(t, second, live)
}

func TestDirectoryRegisterMovesAcrossSessions(t *testing.T) {
	d := NewDirectory()
	stale := testChannel("s1", "alice")
	require.Nil(t, d.Register(stale))

	fresh := testChannel("s2", "alice")
	superseded := d.Register(fresh)
	require.Same(t, stale, superseded)

	// s1 emptied out and its bucket must be gone.
	assert.Equal(t, 1, d.Len())
	assert.Zero(t, d.MemberCount("s1"))

	code, ok := d.SessionOf("alice")
	require.True(t, ok)
	assert.Equal(t, domain.SessionCode("s2"), code)
}

func TestDirectoryRemove(t *testing.T) {
	d := NewDirectory()
	require.Nil(t, d.Register(testChannel("s1", "alice")))
	require.Nil(t, d.Register(testChannel("s1", "bob")))

	d.Remove("s1", "alice")
	assert.ElementsMatch(t, []domain.ParticipantID{"bob"}, d.Members("s1"))
	_, ok := d.SessionOf("alice")
	assert.False(t, ok)

	// Removing an absent pair is a no-op.
	d.Remove("s1", "alice")
	d.Remove("unknown", "alice")

	d.Remove("s1", "bob")
	assert.Zero(t, d.Len(), "empty bucket must be dropped")
}

func TestDirectoryRemoveChannelConditional(t *testing.T) {
	d := NewDirectory()
	stale := testChannel("s1", "alice")
	require.Nil(t, d.Register(stale))

	fresh := testChannel("s1", "alice")
	require.Same(t, stale, d.Register(fresh))

	// The superseded connection's cleanup must not evict its successor.
	assert.False(t, d.RemoveChannel(stale))
	live, ok := d.Channel("alice")
	require.True(t, ok)
	assert.Same(t, fresh, live)

	assert.True(t, d.RemoveChannel(fresh))
	assert.Zero(t, d.Len())
	assert.False(t, d.RemoveChannel(fresh))
}

func TestDirectoryRemoveSession(t *testing.T) {
	d := NewDirectory()
	require.Nil(t, d.Register(testChannel("s1", "alice")))
	require.Nil(t, d.Register(testChannel("s1", "bob")))
	require.Nil(t, d.Register(testChannel("s2", "carol")))

	evicted := d.RemoveSession("s1")
	assert.Len(t, evicted, 2)
	assert.Zero(t, d.MemberCount("s1"))
	assert.Equal(t, 1, d.Len())

	_, ok := d.SessionOf("alice")
	assert.False(t, ok)
	_, ok = d.SessionOf("bob")
	assert.False(t, ok)

	// The untouched session keeps working.
	code, ok := d.SessionOf("carol")
	require.True(t, ok)
	assert.Equal(t, domain.SessionCode("s2"), code)

	assert.Nil(t, d.RemoveSession("unknown"))
}

func TestDirectoryConcurrentChurn(t *testing.T) {
	d := NewDirectory()
	const sessions, members = 8, 25

	var wg sync.WaitGroup
	for s := range sessions {
		for m := range members {
			wg.Add(1)
			go func() {
				defer wg.Done()
				code := domain.SessionCode(fmt.Sprintf("s-%d", s))
				p := domain.ParticipantID(fmt.Sprintf("p-%d-%d", s, m))
				d.Register(NewChannel(code, p, nopConduit{}))
				d.Members(code)
			}()
		}
	}
	wg.Wait()

	require.Equal(t, sessions, d.Len())
	for s := range sessions {
		code := domain.SessionCode(fmt.Sprintf("s-%d", s))
		require.Equal(t, members, d.MemberCount(code))
		for _, p := range d.Members(code) {
			got, ok := d.SessionOf(p)
			require.True(t, ok, "reverse index must cover %s", p)
			require.Equal(t, code, got)
		}
	}

	for s := range sessions {
		for m := range members {
			wg.Add(1)
			go func() {
				defer wg.Done()
				code := domain.SessionCode(fmt.Sprintf("s-%d", s))
				p := domain.ParticipantID(fmt.Sprintf("p-%d-%d", s, m))
				d.Remove(code, p)
			}()
		}
	}
	wg.Wait()

	assert.Zero(t, d.Len())
}
