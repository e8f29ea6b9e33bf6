package store

import (
	"go.uber.org/zap"

	"autoservice-dashboard/internal/model"
)

// Persister keeps the session across restarts.
type Persister interface {
	Save(token string, user *model.User) error
	Load() (token string, user *model.User, err error)
	Clear() error
}

// SessionState is the snapshot held by a SessionStore.
type SessionState struct {
	Token           string
	User            *model.User
	IsAuthenticated bool
	IsLoading       bool
}

// SessionStore holds the signed-in account. It is the bearer token source for the gateway.
type SessionStore struct {
	c         *Container[SessionState]
	persister Persister
	logger    *zap.Logger
}

// NewSessionStore creates an empty session. persister may be nil.
func NewSessionStore(persister Persister, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		c:         NewContainer(SessionState{}),
		persister: persister,
		logger:    logger,
	}
}

func (s *SessionStore) Snapshot() SessionState { return s.c.Get() }

func (s *SessionStore) Subscribe(l Listener[SessionState]) func() { return s.c.Subscribe(l) }

// Token returns the current bearer token, empty when signed out.
func (s *SessionStore) Token() string { return s.c.Get().Token }

// User returns a copy of the signed-in user.
func (s *SessionStore) User() (model.User, bool) {
	u := s.c.Get().User
	if u == nil {
		return model.User{}, false
	}
	return *u, true
}

func (s *SessionStore) Login(token string, user model.User) {
	st := s.c.Update(func(SessionState) SessionState {
		return SessionState{Token: token, User: &user, IsAuthenticated: true}
	})
	s.persist(st)
}

func (s *SessionStore) Logout() {
	s.c.Update(func(SessionState) SessionState { return SessionState{} })
	if s.persister == nil {
		return
	}
	if err := s.persister.Clear(); err != nil {
		s.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
}

func (s *SessionStore) SetToken(token string) {
	st := s.c.Update(func(st SessionState) SessionState {
		st.Token = token
		st.IsAuthenticated = token != ""
		return st
	})
	s.persist(st)
}

func (s *SessionStore) SetUser(user model.User) {
	st := s.c.Update(func(st SessionState) SessionState {
		st.User = &user
		return st
	})
	s.persist(st)
}

// UpdateUser merges patch into the current user. No-op when signed out.
func (s *SessionStore) UpdateUser(patch model.UserPatch) {
	st := s.c.Update(func(st SessionState) SessionState {
		if st.User == nil {
			return st
		}
		next := patch.Apply(*st.User)
		st.User = &next
		return st
	})
	s.persist(st)
}

func (s *SessionStore) SetLoading(loading bool) {
	s.c.Update(func(st SessionState) SessionState {
		st.IsLoading = loading
		return st
	})
}

func (s *SessionStore) HasRole(role string) bool {
	u := s.c.Get().User
	return u != nil && u.Role == role
}

func (s *SessionStore) IsAdmin() bool    { return s.HasRole(model.RoleAdmin) }
func (s *SessionStore) IsEmployee() bool { return s.HasRole(model.RoleEmployee) }
func (s *SessionStore) IsCustomer() bool { return s.HasRole(model.RoleCustomer) }

// Restore loads the persisted session, if any. It reports whether a token was found.
func (s *SessionStore) Restore() (bool, error) {
	if s.persister == nil {
		return false, nil
	}
	token, user, err := s.persister.Load()
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	s.c.Update(func(SessionState) SessionState {
		return SessionState{Token: token, User: user, IsAuthenticated: true}
	})
	return true, nil
}

func (s *SessionStore) persist(st SessionState) {
	if s.persister == nil || st.Token == "" {
		return
	}
	if err := s.persister.Save(st.Token, st.User); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
}
