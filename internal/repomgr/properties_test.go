package repomgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePeerRoles map[string][]string

func (f fakePeerRoles) HasRole(peerID, role string) bool {
	for _, r := range f[peerID] {
		if r == role {
			return true
		}
	}
	return false
}

func TestSetRepoPropertyRelayIDRequiresMyRelayRole(t *testing.T) {
	m := newTestManager(t)

	r, err := m.CreateNewRepo("repo7", "")
	require.NoError(t, err)

	relayID := "1234567890123456789012345678901234567890"
	peers := fakePeerRoles{relayID: {"Peer"}}

	err = m.SetRepoProperty(r.ID, PropRelayID, relayID, nil, peers)
	assert.Error(t, err)

	peers[relayID] = []string{"Peer", "MyRelay"}
	require.NoError(t, m.SetRepoProperty(r.ID, PropRelayID, relayID, nil, peers))

	got, err := m.GetRepoProperty(r.ID, PropRelayID)
	require.NoError(t, err)
	assert.Equal(t, relayID, got)
}

func TestSetRepoPropertyRelayIDSkipsCheckWithNilPeers(t *testing.T) {
	m := newTestManager(t)

	r, err := m.CreateNewRepo("repo8", "")
	require.NoError(t, err)

	relayID := "1234567890123456789012345678901234567890"
	require.NoError(t, m.SetRepoProperty(r.ID, PropRelayID, relayID, nil, nil))

	got, err := m.GetRepoProperty(r.ID, PropRelayID)
	require.NoError(t, err)
	assert.Equal(t, relayID, got)
}
