package service

import (
	"sync"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
)

// AuthStateProvider reports the current signed-in identity and its changes.
type AuthStateProvider interface {
	Current() *domain.Identity
	// Subscribe returns a channel that receives every identity change and a
	// function that ends the subscription. Slow readers only see the latest value.
	Subscribe() (<-chan *domain.Identity, func())
}

type AuthState struct {
	mu          sync.Mutex
	current     *domain.Identity
	subscribers map[int]chan *domain.Identity
	nextID      int
}

func NewAuthState(initial *domain.Identity) *AuthState {
	return &AuthState{
		current:     initial,
		subscribers: make(map[int]chan *domain.Identity),
	}
}

func (a *AuthState) Current() *domain.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// SignIn records identity. A new token for the same user updates Current but
// is not published as a change.
func (a *AuthState) SignIn(identity *domain.Identity) {
	a.set(identity)
}

func (a *AuthState) SignOut() {
	a.set(nil)
}

func (a *AuthState) set(identity *domain.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	changed := !domain.SameUser(a.current, identity)
	a.current = identity
	if !changed {
		return
	}
	for _, ch := range a.subscribers {
		publishLatest(ch, identity)
	}
}

func (a *AuthState) Subscribe() (<-chan *domain.Identity, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID++
	ch := make(chan *domain.Identity, 1)
	a.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subscribers, id)
			a.mu.Unlock()
		})
	}
	return ch, cancel
}

// publishLatest replaces any unread value so the buffer holds only the newest identity.
func publishLatest(ch chan *domain.Identity, identity *domain.Identity) {
	for {
		select {
		case ch <- identity:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

var _ AuthStateProvider = (*AuthState)(nil)
