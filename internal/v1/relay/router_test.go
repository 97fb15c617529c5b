package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*UpdateRouter, *Manager, *fakeTransport) {
	t.Helper()
	mgr, transport := newTestManager(t)
	return mgr.Router, mgr, transport
}

func TestHandlePlayerSkinUpdateSkipsBroadcastWhenUnchanged(t *testing.T) {
	router, mgr, transport := newTestRouter(t)
	connectAndHello(t, mgr, transport, 1, "A", "Town", Vec2{})
	bOb := connectAndHello(t, mgr, transport, 2, "B", "Town", Vec2{})

	ctx := context.Background()
	require.NoError(t, router.Route(ctx, 1, InboundMessage{Kind: KindPlayerSkinUpdate, SkinID: 3}))
	assert.Equal(t, 1, bOb.count("AddPlayerSkinUpdateData"))

	require.NoError(t, router.Route(ctx, 1, InboundMessage{Kind: KindPlayerSkinUpdate, SkinID: 3}))
	assert.Equal(t, 1, bOb.count("AddPlayerSkinUpdateData"), "unchanged skin must not re-broadcast")

	require.NoError(t, router.Route(ctx, 1, InboundMessage{Kind: KindPlayerSkinUpdate, SkinID: 4}))
	assert.Equal(t, 2, bOb.count("AddPlayerSkinUpdateData"))
}

func TestHandlePlayerMapUpdateBroadcastsToEveryoneRegardlessOfScene(t *testing.T) {
	router, mgr, transport := newTestRouter(t)
	connectAndHello(t, mgr, transport, 1, "A", "Town", Vec2{})
	bOb := connectAndHello(t, mgr, transport, 2, "B", "Forest", Vec2{})

	require.NoError(t, router.Route(context.Background(), 1, InboundMessage{Kind: KindPlayerMapUpdate, HasMapIcon: true}))

	assert.True(t, bOb.has("UpdatePlayerMapIcon"), "map icon fan-out is global, not scene-scoped")
}

func TestHandlePlayerMapUpdateSendsCachedPositionWhenIconTurnsOn(t *testing.T) {
	router, mgr, transport := newTestRouter(t)
	connectAndHello(t, mgr, transport, 1, "A", "Town", Vec2{})
	bOb := connectAndHello(t, mgr, transport, 2, "B", "Forest", Vec2{})
	ctx := context.Background()

	require.NoError(t, router.Route(ctx, 1, InboundMessage{
		Kind: KindPlayerUpdate,
		PlayerUpdate: PlayerUpdateRequest{HasMapPosition: true, MapPosition: MapPosition{X: 1, Y: 2, Z: 3}},
	}))
	require.NoError(t, router.Route(ctx, 1, InboundMessage{Kind: KindPlayerMapUpdate, HasMapIcon: true}))

	assert.True(t, bOb.has("UpdatePlayerMapPosition"))
}

func TestHandlePlayerDeathIsSceneFiltered(t *testing.T) {
	router, mgr, transport := newTestRouter(t)
	connectAndHello(t, mgr, transport, 1, "A", "Town", Vec2{})
	bOb := connectAndHello(t, mgr, transport, 2, "B", "Town", Vec2{})
	cOb := connectAndHello(t, mgr, transport, 3, "C", "Forest", Vec2{})

	require.NoError(t, router.Route(context.Background(), 1, InboundMessage{Kind: KindPlayerDeath}))

	assert.True(t, bOb.has("AddPlayerDeathData"))
	assert.False(t, cOb.has("AddPlayerDeathData"))
}

func TestHandlePlayerTeamUpdateIsSceneFiltered(t *testing.T) {
	router, mgr, transport := newTestRouter(t)
	connectAndHello(t, mgr, transport, 1, "A", "Town", Vec2{})
	bOb := connectAndHello(t, mgr, transport, 2, "B", "Town", Vec2{})
	cOb := connectAndHello(t, mgr, transport, 3, "C", "Forest", Vec2{})

	require.NoError(t, router.Route(context.Background(), 1, InboundMessage{Kind: KindPlayerTeamUpdate, Team: 2}))

	assert.True(t, bOb.has("AddPlayerTeamUpdateData"))
	assert.False(t, cOb.has("AddPlayerTeamUpdateData"))
	assert.Equal(t, int32(2), mgr.Sessions.Get(1).Team)
}

func TestRouteUnrecognizedKindReturnsError(t *testing.T) {
	router, _, _ := newTestRouter(t)
	err := router.Route(context.Background(), 1, InboundMessage{Kind: InboundKind(999)})
	assert.Error(t, err)
}
