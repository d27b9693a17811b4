// ABOUTME: Registry is the sole authority for spawn/discover/termination-notification.
// ABOUTME: Guards its actor map with a mutex because spawn and cleanup can race (see teacher's SpecActorHandle).

package actor

import (
	"fmt"
	"sync"
)

// Registry owns the set of live actors in a process.
type Registry struct {
	mu          sync.RWMutex
	actors      map[string]*Actor
	principalID string

	Events *EventBroadcaster
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actors: make(map[string]*Actor), Events: NewEventBroadcaster()}
}

// Spawn creates a new actor in the Running state. It fails with a
// *PrincipalConflictError if isPrincipal is requested while another
// principal is already live.
func (r *Registry) Spawn(config Config, spawnedBy string, isPrincipal bool) (*Actor, error) {
	r.mu.Lock()
	if isPrincipal {
		if existing, ok := r.actors[r.principalID]; ok && r.principalID != "" && existing.State() != Terminated {
			r.mu.Unlock()
			return nil, &PrincipalConflictError{ExistingID: r.principalID}
		}
	}

	a := newActor(config, r, spawnedBy, isPrincipal)
	r.actors[a.ID] = a
	if isPrincipal {
		r.principalID = a.ID
	}
	r.mu.Unlock()

	a.markRunning()
	r.Events.Broadcast(Event{Kind: EventSpawned, ActorID: a.ID, Detail: a.Config.Name})
	return a, nil
}

// Get looks up an actor by id. Returns nil if absent.
func (r *Registry) Get(id string) *Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actors[id]
}

// GetPrincipal returns the current principal actor, or nil if none is registered.
func (r *Registry) GetPrincipal() *Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.principalID == "" {
		return nil
	}
	return r.actors[r.principalID]
}

// Discover returns the non-terminated actors whose group matches. Ordering
// is stable per call but otherwise unspecified.
func (r *Registry) Discover(group string) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var infos []Info
	for _, a := range r.actors {
		if a.Config.Group == group && a.State() != Terminated {
			infos = append(infos, a.Info())
		}
	}
	return infos
}

// GetChildren returns the non-terminated direct descendants of parentID.
func (r *Registry) GetChildren(parentID string) []*Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var children []*Actor
	for _, a := range r.actors {
		if a.SpawnedBy == parentID && a.State() != Terminated {
			children = append(children, a)
		}
	}
	return children
}

// onActorTerminated enqueues a termination message to the parent, if the
// parent exists and is Running. Delivery is best-effort: if the parent's
// inbox cannot accept the message synchronously, it is still recorded in
// the parent's history so the fact of termination is never lost.
func (r *Registry) onActorTerminated(actorID string) {
	r.mu.RLock()
	child := r.actors[actorID]
	var parent *Actor
	if child != nil && child.SpawnedBy != "" {
		parent = r.actors[child.SpawnedBy]
	}
	r.mu.RUnlock()

	if child != nil {
		r.Events.Broadcast(Event{Kind: EventTerminated, ActorID: child.ID, Detail: child.Result()})
	}
	if child == nil || parent == nil || parent.State() != Running {
		return
	}

	msg := NewMessage(actorID, parent.ID, fmt.Sprintf("[TERMINATED] %s finished: %s", child.Config.Name, orDefault(child.Result(), "no result")), "")
	// TrySend always records the message in the parent's history; if the
	// inbox itself is full (synchronous teardown with no consumer
	// draining it), the fact of termination is still observable via
	// history even though the inbox delivery was dropped.
	parent.TrySend(msg)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ActiveCount returns the number of non-terminated actors.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.actors {
		if a.State() != Terminated {
			n++
		}
	}
	return n
}

// AllActors returns discovery info for every actor, including terminated ones.
func (r *Registry) AllActors() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.actors))
	for _, a := range r.actors {
		infos = append(infos, a.Info())
	}
	return infos
}

// CleanupTerminated removes Terminated actors from the registry. Safe to
// call concurrently with Spawn.
func (r *Registry) CleanupTerminated() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for id, a := range r.actors {
		if a.State() == Terminated {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(r.actors, id)
		if id == r.principalID {
			r.principalID = ""
		}
	}
	return len(removed)
}
