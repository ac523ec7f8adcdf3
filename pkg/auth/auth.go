// Package auth defines the identity provider consumed by the assistant
// client and the session orchestrator. The provider is constructed once at
// process start and injected where needed; nothing reads it as ambient
// global state.
package auth

import (
	"context"
	"errors"
	"sync"
)

// Sentinel errors returned by providers.
var (
	// ErrInvalidCredentials is returned when sign-in fails because the
	// email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailInUse is returned when sign-up collides with an existing account.
	ErrEmailInUse = errors.New("email already in use")

	// ErrNotSignedIn is returned by operations that need a signed-in user.
	ErrNotSignedIn = errors.New("not signed in")
)

// Identity is the signed-in user as seen by the rest of the SDK.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// State is one identity-or-none event on a subscription stream.
type State struct {
	// Identity is valid only when SignedIn is true.
	Identity Identity
	SignedIn bool
}

// Provider is the authentication surface. Implementations must deliver an
// initial State to each new subscriber and a State for every later change
// until the subscription context is cancelled.
type Provider interface {
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, name, email, password string) (Identity, error)

	// SignIn authenticates an existing account.
	SignIn(ctx context.Context, email, password string) (Identity, error)

	// SignOut clears the current identity.
	SignOut(ctx context.Context) error

	// CurrentUser returns the signed-in identity, if any.
	CurrentUser() (Identity, bool)

	// Subscribe returns a stream of identity changes. The channel is closed
	// when ctx is cancelled; the caller owns the teardown.
	Subscribe(ctx context.Context) <-chan State
}

// Profile is the user record written on registration.
type Profile struct {
	Name         string `json:"nombre"`
	Email        string `json:"email"`
	RegisteredAt string `json:"fechaRegistro"`
}

// ProfileStore persists user profiles. Implemented by store/rtdb.
type ProfileStore interface {
	SaveProfile(ctx context.Context, userID string, p Profile) error
}

// stateHub fans out State changes to subscribers. Shared by the Firebase
// provider and the in-memory fake.
type stateHub struct {
	mu      sync.Mutex
	current State
	nextID  int
	subs    map[int]chan State
}

func newStateHub() *stateHub {
	return &stateHub{subs: make(map[int]chan State)}
}

func (h *stateHub) get() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// set updates the current state and notifies every live subscriber. Slow
// subscribers lose intermediate states, never the stream itself.
func (h *stateHub) set(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = s
	for _, ch := range h.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (h *stateHub) subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 8)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	ch <- h.current // initial state, buffer is never full here
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}
