package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElectInitialTrueOnlyWhenSceneEmpty(t *testing.T) {
	table := NewSessionTable()
	index := NewSceneIndex(table)
	elector := NewSceneHostElector(index)

	assert.True(t, elector.ElectInitial("Town", 1))

	alice := NewPlayerRecord(1, "a", "alice", "key-a")
	alice.SetScene("Town")
	require.NoError(t, table.Insert(alice))

	assert.False(t, elector.ElectInitial("Town", 2))
}

func TestHandleDepartureTransfersToFirstRemaining(t *testing.T) {
	table := NewSessionTable()
	index := NewSceneIndex(table)
	elector := NewSceneHostElector(index)

	alice := NewPlayerRecord(1, "a", "alice", "key-a")
	bob := NewPlayerRecord(2, "b", "bob", "key-b")
	alice.SetScene("Town")
	bob.SetScene("Town")
	alice.SetIsSceneHost(true)
	require.NoError(t, table.Insert(alice))
	require.NoError(t, table.Insert(bob))

	successor := elector.HandleDeparture("Town", alice)
	require.NotNil(t, successor)
	assert.Equal(t, bob.ID, successor.ID)
	assert.False(t, alice.IsHost())
	assert.True(t, bob.IsHost())
}

func TestHandleDepartureReturnsNilWhenLeaverWasNotHost(t *testing.T) {
	table := NewSessionTable()
	index := NewSceneIndex(table)
	elector := NewSceneHostElector(index)

	alice := NewPlayerRecord(1, "a", "alice", "key-a")
	bob := NewPlayerRecord(2, "b", "bob", "key-b")
	alice.SetScene("Town")
	bob.SetScene("Town")
	bob.SetIsSceneHost(true)
	require.NoError(t, table.Insert(alice))
	require.NoError(t, table.Insert(bob))

	successor := elector.HandleDeparture("Town", alice)
	assert.Nil(t, successor)
	assert.True(t, bob.IsHost())
}

func TestHandleDepartureReturnsNilWhenSceneBecomesEmpty(t *testing.T) {
	table := NewSessionTable()
	index := NewSceneIndex(table)
	elector := NewSceneHostElector(index)

	alice := NewPlayerRecord(1, "a", "alice", "key-a")
	alice.SetScene("Town")
	alice.SetIsSceneHost(true)
	require.NoError(t, table.Insert(alice))

	successor := elector.HandleDeparture("Town", alice)
	assert.Nil(t, successor)
	assert.False(t, alice.IsHost())
}
