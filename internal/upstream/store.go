// Package upstream is an in-memory implementation of the expense-workflow
// API. It backs cmd/stubapi for local development and the handler tests; the
// real backend is an external service with the same contract.
package upstream

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"expenseweb/internal/api"
	"expenseweb/internal/workflow"
)

var (
	ErrNotFound   = errors.New("request not found")
	ErrForbidden  = errors.New("role not allowed for this action")
	ErrValidation = errors.New("invalid request payload")
	ErrComment    = errors.New("comment is required")
)

// User is one seeded account.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         api.Role
	passwordHash []byte
}

type record struct {
	req         api.Request
	applicantID int64
	history     []api.HistoryEntry
}

// Store holds every request, user and session in memory.
type Store struct {
	mu       sync.Mutex
	seq      int64
	records  []*record
	users    []User
	sessions map[string]int64
	now      func() time.Time
}

// NewStore seeds the demo users (password "password") and the three starter
// requests the original dataset ships with.
func NewStore() *Store {
	s := &Store{
		sessions: make(map[string]int64),
		now:      time.Now,
	}
	s.users = []User{
		seedUser(1, "applicant@example.com", "申請 太郎", api.RoleApplicant),
		seedUser(2, "approver@example.com", "承認 花子", api.RoleApprover),
		seedUser(3, "admin@example.com", "管理 次郎", api.RoleAdmin),
	}

	s.seed(1, "交通費精算", 1200, "領収書あり", workflow.StatusDraft)
	s.seed(1, "出張費", 5000, "大阪出張", workflow.StatusSubmitted)
	s.seed(1, "備品購入", 300, "ペン購入", workflow.StatusApproved)
	return s
}

func seedUser(id int64, email, name string, role api.Role) User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return User{ID: id, Email: email, Name: name, Role: role, passwordHash: hash}
}

func (s *Store) seed(applicantID int64, title string, amount int64, note string, status workflow.Status) {
	s.seq++
	rec := &record{
		req: api.Request{
			ID:     s.seq,
			Title:  title,
			Amount: amount,
			Note:   note,
			Status: status,
		},
		applicantID: applicantID,
	}
	// Backfill the history that would have produced the seeded status.
	applicant := s.users[0].Name
	approver := s.users[1].Name
	switch status {
	case workflow.StatusSubmitted:
		rec.history = append(rec.history, s.entry(workflow.ActionSubmit, applicant, ""))
	case workflow.StatusApproved:
		rec.history = append(rec.history,
			s.entry(workflow.ActionSubmit, applicant, ""),
			s.entry(workflow.ActionApprove, approver, ""))
	}
	s.records = append(s.records, rec)
}

func (s *Store) entry(action workflow.Action, actor, comment string) api.HistoryEntry {
	return api.HistoryEntry{
		Action:    action,
		ActorName: actor,
		CreatedAt: s.now(),
		Comment:   comment,
	}
}

// Authenticate checks credentials and returns the matching user.
func (s *Store) Authenticate(email, password string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email && bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) == nil {
			return u, true
		}
	}
	return User{}, false
}

// OpenSession issues a session token for the user.
func (s *Store) OpenSession(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = userID
	return token
}

// SessionUser resolves a session token to its user.
func (s *Store) SessionUser(token string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[token]
	if !ok {
		return User{}, false
	}
	for _, u := range s.users {
		if u.ID == userID {
			return u, true
		}
	}
	return User{}, false
}

// CloseSession drops the session token.
func (s *Store) CloseSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// ListByApplicant returns the applicant's own requests in creation order.
func (s *Store) ListByApplicant(applicantID int64) []api.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.Request
	for _, rec := range s.records {
		if rec.applicantID == applicantID {
			out = append(out, rec.req)
		}
	}
	return out
}

// Pending returns every SUBMITTED request, the approver's queue.
func (s *Store) Pending() []api.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.Request
	for _, rec := range s.records {
		if rec.req.Status == workflow.StatusSubmitted {
			out = append(out, rec.req)
		}
	}
	return out
}

// Create stores a new DRAFT owned by the applicant.
func (s *Store) Create(applicantID int64, in api.RequestInput) (api.Request, error) {
	if strings.TrimSpace(in.Title) == "" || in.Amount < 0 {
		return api.Request{}, ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	rec := &record{
		req: api.Request{
			ID:     s.seq,
			Title:  in.Title,
			Amount: in.Amount,
			Note:   in.Note,
			Status: workflow.StatusDraft,
		},
		applicantID: applicantID,
	}
	s.records = append(s.records, rec)
	return rec.req, nil
}

// Get returns one request, restricted to its owner.
func (s *Store) Get(applicantID, id int64) (api.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(id)
	if rec == nil || rec.applicantID != applicantID {
		return api.Request{}, ErrNotFound
	}
	return rec.req, nil
}

// GetAny returns one request regardless of owner (approver detail view).
func (s *Store) GetAny(id int64) (api.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(id)
	if rec == nil {
		return api.Request{}, ErrNotFound
	}
	return rec.req, nil
}

// Update patches title/amount/note while the request is editable. The status
// never changes here.
func (s *Store) Update(applicantID, id int64, in api.RequestInput) (api.Request, error) {
	if strings.TrimSpace(in.Title) == "" || in.Amount < 0 {
		return api.Request{}, ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(id)
	if rec == nil || rec.applicantID != applicantID {
		return api.Request{}, ErrNotFound
	}
	if !workflow.CanEdit(rec.req.Status) {
		return api.Request{}, workflow.ErrIllegalTransition
	}
	rec.req.Title = in.Title
	rec.req.Amount = in.Amount
	rec.req.Note = in.Note
	return rec.req, nil
}

// History returns the append-only action log, restricted to the owner.
func (s *Store) History(applicantID, id int64) ([]api.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(id)
	if rec == nil || rec.applicantID != applicantID {
		return nil, ErrNotFound
	}
	out := make([]api.HistoryEntry, len(rec.history))
	copy(out, rec.history)
	return out, nil
}

// Transition applies one workflow action as the given actor. Role checks,
// the transition table and the comment rule are all enforced here; illegal
// transitions surface as workflow.ErrIllegalTransition (HTTP 409 upstairs).
func (s *Store) Transition(actor User, id int64, action workflow.Action, comment string) (api.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(id)
	if rec == nil {
		return api.Request{}, ErrNotFound
	}

	switch action {
	case workflow.ActionSubmit, workflow.ActionWithdraw:
		if actor.Role != api.RoleApplicant || rec.applicantID != actor.ID {
			return api.Request{}, ErrForbidden
		}
		if action == workflow.ActionSubmit && strings.TrimSpace(rec.req.Title) == "" {
			return api.Request{}, ErrValidation
		}
	case workflow.ActionApprove, workflow.ActionReturn, workflow.ActionReject:
		if actor.Role != api.RoleApprover && actor.Role != api.RoleAdmin {
			return api.Request{}, ErrForbidden
		}
		if action != workflow.ActionApprove && strings.TrimSpace(comment) == "" {
			return api.Request{}, ErrComment
		}
	default:
		return api.Request{}, ErrValidation
	}

	next, err := workflow.Apply(rec.req.Status, action)
	if err != nil {
		return api.Request{}, err
	}
	rec.req.Status = next
	if action == workflow.ActionReturn {
		rec.req.LastReturnComment = comment
	}
	rec.history = append(rec.history, s.entry(action, actor.Name, comment))
	return rec.req, nil
}

// find locates a record by id. Caller holds s.mu.
func (s *Store) find(id int64) *record {
	for _, rec := range s.records {
		if rec.req.ID == id {
			return rec
		}
	}
	return nil
}
