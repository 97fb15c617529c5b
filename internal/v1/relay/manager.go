package relay

import "context"

// Manager is the central object a Transport drives: one process-wide
// session table rather than a per-room instantiation, since a
// PlayerRecord's identity persists across this domain's scene
// transitions instead of being scoped to a single ephemeral room.
type Manager struct {
	Sessions  *SessionTable
	Scenes    *SceneIndex
	Entities  *EntityCache
	Admission *AdmissionController
	Elector   *SceneHostElector
	Lifecycle *PlayerLifecycle
	EntityRelay *EntityRelay
	Chat      *ChatRouter
	Router    *UpdateRouter

	transport Transport
	logger    Logger
}

// NewManager wires every relay component into a single manager, ready
// to be handed to a Transport as the consumer of its
// login/timeout/disconnect events.
func NewManager(transport Transport, logger Logger, lists AccessLists, addons AddonRegistry, commands CommandBus, authorized AuthorizedKeys) *Manager {
	sessions := NewSessionTable()
	scenes := NewSceneIndex(sessions)
	entities := NewEntityCache()
	admission := NewAdmissionController(sessions, lists, addons)
	elector := NewSceneHostElector(scenes)
	lifecycle := NewPlayerLifecycle(sessions, scenes, entities, elector, transport, logger)
	entityRelay := NewEntityRelay(sessions, scenes, entities, transport, logger)

	onPanic := func(recovered any) {
		if logger != nil {
			logger.Error(context.Background(), "chat event subscriber panicked", "error", recovered)
		}
	}
	chat := NewChatRouter(sessions, transport, logger, commands, authorized, NewChatEventBus(onPanic))
	router := NewUpdateRouter(sessions, scenes, lifecycle, entityRelay, chat, transport, logger)

	return &Manager{
		Sessions:    sessions,
		Scenes:      scenes,
		Entities:    entities,
		Admission:   admission,
		Elector:     elector,
		Lifecycle:   lifecycle,
		EntityRelay: entityRelay,
		Chat:        chat,
		Router:      router,
		transport:   transport,
		logger:      logger,
	}
}

// OnLoginRequest implements the Transport-facing login event: evaluate
// admission, answer the client synchronously, and report whether
// Transport should keep the connection open.
func (m *Manager) OnLoginRequest(ctx context.Context, id PlayerID, remoteAddr string, req LoginRequest) (accept bool) {
	outbox := m.transport.OutboxFor(id)
	resp := m.Admission.Evaluate(ctx, id, remoteAddr, req)
	if outbox != nil {
		outbox.SetLoginResponse(resp)
	}
	if resp.Status != RejectNone {
		if outbox != nil {
			outbox.SetDisconnect(rejectToDisconnectReason(resp.Status))
		}
		return false
	}
	return true
}

func rejectToDisconnectReason(code RejectCode) DisconnectReason {
	switch code {
	case RejectBanned:
		return DisconnectBanned
	case RejectNotWhiteListed:
		return DisconnectNotWhiteListed
	case RejectInvalidUsername:
		return DisconnectInvalidUsername
	case RejectInvalidAddons:
		return DisconnectInvalidAddons
	default:
		return DisconnectNone
	}
}

// Route implements the Transport-facing ingress event: dispatch one
// inbound frame from id.
func (m *Manager) Route(ctx context.Context, id PlayerID, msg InboundMessage) error {
	return m.Router.Route(ctx, id, msg)
}

// OnClientTimeout implements the Transport-facing timeout event:
// treated identically to a disconnect, except the core does not ask
// Transport to close the connection (it already has) and the fan-out
// PlayerDisconnect frame carries timeout=true.
func (m *Manager) OnClientTimeout(ctx context.Context, id PlayerID) {
	_ = m.Lifecycle.Disconnect(ctx, id, true)
}

// OnClientDisconnect implements the Transport-facing disconnect event.
func (m *Manager) OnClientDisconnect(ctx context.Context, id PlayerID) {
	_ = m.Lifecycle.Disconnect(ctx, id, false)
}

// OnShutdown sets a Shutdown disconnect reason on every active
// client's outbox, then clears the session table. In-flight handlers
// that subsequently observe a missing record must treat it as a benign
// race, which SessionTable's nil-returning Get already makes safe.
func (m *Manager) OnShutdown(ctx context.Context) {
	for _, rec := range m.Sessions.Snapshot() {
		if ob := m.transport.OutboxFor(rec.ID); ob != nil {
			ob.SetDisconnect(DisconnectShutdown)
		}
	}
	for _, rec := range m.Sessions.Snapshot() {
		m.Sessions.Remove(rec.ID)
	}
}

// KickPlayer is the admin-surface counterpart to the client-driven
// disconnect events above: it notifies id's outbox with reason before
// running the same Disconnect side effects, and reports false when id
// has no connected outbox to notify. Transport is responsible for
// actually closing the underlying connection afterward.
func (m *Manager) KickPlayer(ctx context.Context, id PlayerID, reason DisconnectReason) bool {
	outbox := m.transport.OutboxFor(id)
	if outbox == nil {
		return false
	}
	outbox.SetDisconnect(reason)
	_ = m.Lifecycle.Disconnect(ctx, id, false)
	return true
}

// Announce fans text out to every connected player's chat as a
// server-originated message, the same per-record outbox loop
// OnShutdown uses.
func (m *Manager) Announce(text string) {
	for _, rec := range m.Sessions.Snapshot() {
		if ob := m.transport.OutboxFor(rec.ID); ob != nil {
			ob.AddChatMessage(text)
		}
	}
}
