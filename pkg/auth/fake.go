package auth

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Provider for tests and local development.
type Fake struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount
	nextUID  int
	hub      *stateHub
}

type fakeAccount struct {
	uid      string
	name     string
	password string
}

// NewFake creates an empty in-memory provider.
func NewFake() *Fake {
	return &Fake{
		accounts: make(map[string]fakeAccount),
		hub:      newStateHub(),
	}
}

// SignUp implements Provider.
func (f *Fake) SignUp(ctx context.Context, name, email, password string) (Identity, error) {
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return Identity{}, ErrEmailInUse
	}
	f.nextUID++
	acct := fakeAccount{uid: fmt.Sprintf("fake-uid-%d", f.nextUID), name: name, password: password}
	f.accounts[email] = acct
	f.mu.Unlock()

	id := Identity{UID: acct.uid, Email: email, DisplayName: name}
	f.hub.set(State{Identity: id, SignedIn: true})
	return id, nil
}

// SignIn implements Provider.
func (f *Fake) SignIn(ctx context.Context, email, password string) (Identity, error) {
	f.mu.Lock()
	acct, exists := f.accounts[email]
	f.mu.Unlock()

	if !exists || acct.password != password {
		return Identity{}, ErrInvalidCredentials
	}

	id := Identity{UID: acct.uid, Email: email, DisplayName: acct.name}
	f.hub.set(State{Identity: id, SignedIn: true})
	return id, nil
}

// SignOut implements Provider.
func (f *Fake) SignOut(ctx context.Context) error {
	f.hub.set(State{})
	return nil
}

// CurrentUser implements Provider.
func (f *Fake) CurrentUser() (Identity, bool) {
	s := f.hub.get()
	return s.Identity, s.SignedIn
}

// Subscribe implements Provider.
func (f *Fake) Subscribe(ctx context.Context) <-chan State {
	return f.hub.subscribe(ctx)
}
