package client

import (
	"log"
	"sync"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

// Coordinator owns the current top-level screen. Besides explicit
// navigation it follows sign-in and sign-out events from the identity
// provider.
type Coordinator struct {
	auth     ports.AuthProvider
	onChange func(domain.Screen)

	mu      sync.Mutex
	current domain.Screen
	cancel  func()
	done    chan struct{}
}

// NewCoordinator starts on the authorization screen. onChange, if set, is
// called after every screen change, outside the coordinator's lock.
func NewCoordinator(auth ports.AuthProvider, onChange func(domain.Screen)) *Coordinator {
	return &Coordinator{
		auth:     auth,
		onChange: onChange,
		current:  domain.ScreenAuthorization,
	}
}

func (c *Coordinator) Screen() domain.Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Coordinator) GoToAuth() { c.navigate(domain.ScreenAuthorization) }

func (c *Coordinator) GoToMain() { c.navigate(domain.ScreenMainTabs) }

// HandleLaunch picks the first screen from the persisted identity.
func (c *Coordinator) HandleLaunch() {
	if _, ok := c.auth.CurrentUserID(); ok {
		c.GoToMain()
		return
	}
	c.GoToAuth()
}

// Start follows identity changes until Close.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	events, cancel := c.auth.Subscribe()
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		for ev := range events {
			c.handleAuthEvent(ev)
		}
	}()
}

func (c *Coordinator) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Coordinator) handleAuthEvent(ev domain.AuthEvent) {
	switch screen := c.Screen(); {
	case ev.SignedIn && screen == domain.ScreenAuthorization:
		log.Printf("coordinator: %s signed in, showing main tabs", ev.UserID)
		c.GoToMain()
	case !ev.SignedIn && screen == domain.ScreenMainTabs:
		log.Printf("coordinator: signed out, showing authorization")
		c.GoToAuth()
	}
}

func (c *Coordinator) navigate(to domain.Screen) {
	c.mu.Lock()
	if c.current == to {
		c.mu.Unlock()
		return
	}
	c.current = to
	c.mu.Unlock()
	if c.onChange != nil {
		c.onChange(to)
	}
}
