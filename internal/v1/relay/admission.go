package relay

import (
	"context"
	"unicode"

	"k8s.io/utils/set"
)

// AccessLists is the external collaborator for ban/whitelist/pre-list
// persistence. A Redis-backed reference implementation lives in
// internal/v1/accesslists so lists survive a restart and are shared
// across a horizontally-scaled deployment.
type AccessLists interface {
	IsBanned(ctx context.Context, remoteAddr, authKey string) (bool, error)
	WhitelistEnabled() bool
	IsWhitelisted(ctx context.Context, authKey string) (bool, error)
	IsPreListed(ctx context.Context, username string) (bool, error)
	// PromoteFromPreList moves authKey into the whitelist and removes
	// username from the pre-list, persistently.
	PromoteFromPreList(ctx context.Context, username, authKey string) error
}

// AddonRegistry is the external collaborator describing the server's
// networked-addon set: a small in-memory registry seeded at startup
// lives in internal/v1/addons.
type AddonRegistry interface {
	// ServerAddonSet returns the server's full networked-addon set, in
	// the canonical order echoed back to a client on InvalidAddons.
	ServerAddonSet() []AddonVersion
	// NumberOf returns the server-side numeric id for identifier, and
	// whether the server numbers that addon at all.
	NumberOf(identifier string) (id int32, ok bool)
}

// AdmissionController evaluates LoginRequests. Evaluation order is
// fixed; the first failing check wins and produces a distinct reject
// code.
type AdmissionController struct {
	sessions *SessionTable
	lists    AccessLists
	addons   AddonRegistry
}

// NewAdmissionController wires the collaborators needed to evaluate logins.
func NewAdmissionController(sessions *SessionTable, lists AccessLists, addons AddonRegistry) *AdmissionController {
	return &AdmissionController{sessions: sessions, lists: lists, addons: addons}
}

// Evaluate runs the ordered admission checks and, on success,
// constructs and inserts a fresh PlayerRecord into the session table.
// It never returns a Go error for a rejection: rejection is expressed
// entirely through resp.Status, answered synchronously rather than
// propagated as an error.
func (a *AdmissionController) Evaluate(ctx context.Context, id PlayerID, remoteAddr string, req LoginRequest) LoginResponse {
	if banned, _ := a.lists.IsBanned(ctx, remoteAddr, req.AuthKey); banned {
		return LoginResponse{Status: RejectBanned}
	}

	if a.lists.WhitelistEnabled() {
		whitelisted, _ := a.lists.IsWhitelisted(ctx, req.AuthKey)
		if !whitelisted {
			preListed, _ := a.lists.IsPreListed(ctx, req.Username)
			if !preListed {
				return LoginResponse{Status: RejectNotWhiteListed}
			}
			_ = a.lists.PromoteFromPreList(ctx, req.Username, req.AuthKey)
		}
	}

	if !isLetterDigitOnly(req.Username) {
		return LoginResponse{Status: RejectInvalidUsername}
	}
	if req.Username == "" {
		return LoginResponse{Status: RejectInvalidUsername}
	}
	if a.sessions.FindByUsernameFold(req.Username) != nil {
		return LoginResponse{Status: RejectInvalidUsername}
	}

	addonOrder, ok := a.matchAddons(req.AddonSet)
	if !ok {
		return LoginResponse{Status: RejectInvalidAddons, ServerAddonSet: a.addons.ServerAddonSet()}
	}

	rec := NewPlayerRecord(id, remoteAddr, req.Username, req.AuthKey)
	if err := a.sessions.Insert(rec); err != nil {
		// Benign race: the id was already reserved concurrently. Treat
		// as a protocol-level failure rather than panicking the caller.
		return LoginResponse{Status: RejectInvalidUsername}
	}

	return LoginResponse{Status: RejectNone, PlayerID: id, AddonOrder: addonOrder}
}

func isLetterDigitOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// matchAddons requires cardinality to match and every (identifier,
// version) pair to have an exact match on the server. set.Set gives the
// symmetric-difference check for identifiers a name instead of a
// hand-rolled double loop.
func (a *AdmissionController) matchAddons(client []AddonVersion) (addonOrder []int32, ok bool) {
	server := a.addons.ServerAddonSet()
	if len(client) != len(server) {
		return nil, false
	}

	serverByID := make(map[string]string, len(server))
	serverIdentifiers := set.New[string]()
	for _, av := range server {
		serverByID[av.Identifier] = av.Version
		serverIdentifiers.Insert(av.Identifier)
	}

	clientIdentifiers := set.New[string]()
	for _, av := range client {
		clientIdentifiers.Insert(av.Identifier)
		version, present := serverByID[av.Identifier]
		if !present || version != av.Version {
			return nil, false
		}
	}
	if !serverIdentifiers.Equal(clientIdentifiers) {
		return nil, false
	}

	order := make([]int32, 0, len(client))
	for _, av := range client {
		if numID, numbered := a.addons.NumberOf(av.Identifier); numbered {
			order = append(order, numID)
		}
	}
	return order, true
}
