package conversation

import (
	"errors"
	"sync"

	"github.com/zhouzirui/flash-studio/backend/internal/model/persona"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrPersonaUnknown  = errors.New("persona not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Manager is the in-memory conversation registry: one controller per live
// session, keyed by session id.
type Manager struct {
	assistant Assistant
	personas  persona.Store

	mu    sync.RWMutex
	convs map[string]*Controller
}

// NewManager bootstraps an empty registry.
func NewManager(assistant Assistant, personas persona.Store) *Manager {
	return &Manager{
		assistant: assistant,
		personas:  personas,
		convs:     make(map[string]*Controller),
	}
}

// Create provisions a conversation bound to the persona and registers it.
func (m *Manager) Create(personaID string) (*Controller, error) {
	if personaID == "" {
		return nil, ErrPersonaRequired
	}
	p, ok := m.personas.FindByID(personaID)
	if !ok {
		return nil, ErrPersonaUnknown
	}

	ctrl, err := NewController(m.assistant, p)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.convs[ctrl.ID()] = ctrl
	m.mu.Unlock()
	return ctrl, nil
}

// Get retrieves a live conversation by session id.
func (m *Manager) Get(sessionID string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.convs[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// SwitchPersona rebinds a live conversation to another catalog persona.
func (m *Manager) SwitchPersona(sessionID, personaID string) (*Controller, error) {
	ctrl, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}
	p, ok := m.personas.FindByID(personaID)
	if !ok {
		return nil, ErrPersonaUnknown
	}
	if err := ctrl.SwitchPersona(p); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// Remove drops a conversation from the registry.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	delete(m.convs, sessionID)
	m.mu.Unlock()
}
