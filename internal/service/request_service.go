package service

import (
	"context"
	"errors"
	"strconv"

	"expenseweb/internal/api"
	"expenseweb/internal/cache"
	"expenseweb/internal/session"
	"expenseweb/internal/workflow"
)

// ErrMutationInFlight is returned when a second mutation is fired against a
// resource whose previous mutation has not resolved yet. The SPA disables
// the buttons; here the post itself is refused.
var ErrMutationInFlight = errors.New("another action on this request is still running")

// ErrCreatedWithoutID is returned when the create response carries no id.
// The follow-up submit is never attempted in that case.
var ErrCreatedWithoutID = errors.New("create response is missing the request id")

// Section is one fixed status group of the request list.
type Section struct {
	Status workflow.Status
	Items  []api.Request
}

// RequestService is the applicant's view of the request resource: cached
// reads plus mutations with their exact invalidation sets.
type RequestService interface {
	Sections(ctx context.Context, sess *session.Session) ([]Section, error)
	Get(ctx context.Context, sess *session.Session, id string) (api.Request, error)
	History(ctx context.Context, sess *session.Session, id string) ([]api.HistoryEntry, error)
	Create(ctx context.Context, sess *session.Session, in api.RequestInput) (api.Request, error)
	CreateAndSubmit(ctx context.Context, sess *session.Session, in api.RequestInput) (api.Request, error)
	Update(ctx context.Context, sess *session.Session, id string, in api.RequestInput) error
	Submit(ctx context.Context, sess *session.Session, id string) error
	Withdraw(ctx context.Context, sess *session.Session, id string) error
}

type requestService struct {
	client *api.Client
}

func NewRequestService(client *api.Client) RequestService {
	return &requestService{client: client}
}

// Sections fetches the applicant's requests and groups them into the fixed
// status sections. Empty sections are part of the result so the page always
// renders every header.
func (s *requestService) Sections(ctx context.Context, sess *session.Session) ([]Section, error) {
	requests, err := cache.Fetch(sess.Cache(), cache.Key{Kind: cache.KindRequests}, func() ([]api.Request, error) {
		return s.client.ListRequests(ctx, sess.Credentials())
	})
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(workflow.SectionOrder))
	for _, status := range workflow.SectionOrder {
		section := Section{Status: status}
		for _, req := range requests {
			if req.Status == status {
				section.Items = append(section.Items, req)
			}
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func (s *requestService) Get(ctx context.Context, sess *session.Session, id string) (api.Request, error) {
	return cache.Fetch(sess.Cache(), cache.Key{Kind: cache.KindRequest, ID: id}, func() (api.Request, error) {
		return s.client.GetRequest(ctx, sess.Credentials(), id)
	})
}

func (s *requestService) History(ctx context.Context, sess *session.Session, id string) ([]api.HistoryEntry, error) {
	return cache.Fetch(sess.Cache(), cache.Key{Kind: cache.KindHistory, ID: id}, func() ([]api.HistoryEntry, error) {
		return s.client.History(ctx, sess.Credentials(), id)
	})
}

func (s *requestService) Create(ctx context.Context, sess *session.Session, in api.RequestInput) (api.Request, error) {
	created, err := s.client.CreateRequest(ctx, sess.Credentials(), in)
	if err != nil {
		return api.Request{}, err
	}
	sess.Cache().Invalidate(cache.KindRequests)
	return created, nil
}

// CreateAndSubmit creates the request and immediately submits it. When the
// create response lacks an id the whole operation fails; a submit without a
// valid id is never fired.
func (s *requestService) CreateAndSubmit(ctx context.Context, sess *session.Session, in api.RequestInput) (api.Request, error) {
	created, err := s.client.CreateRequest(ctx, sess.Credentials(), in)
	if err != nil {
		return api.Request{}, err
	}
	sess.Cache().Invalidate(cache.KindRequests)
	if created.ID <= 0 {
		return api.Request{}, ErrCreatedWithoutID
	}

	id := strconv.FormatInt(created.ID, 10)
	if err := s.client.SubmitRequest(ctx, sess.Credentials(), id); err != nil {
		return api.Request{}, err
	}
	sess.Cache().Invalidate(cache.KindRequests)
	sess.Cache().Invalidate(cache.KindInbox)
	return created, nil
}

func (s *requestService) Update(ctx context.Context, sess *session.Session, id string, in api.RequestInput) error {
	if !sess.Begin(mutationKey(id)) {
		return ErrMutationInFlight
	}
	defer sess.End(mutationKey(id))

	if err := s.client.UpdateRequest(ctx, sess.Credentials(), id, in); err != nil {
		return err
	}
	sess.Cache().InvalidateKey(cache.KindRequest, id)
	sess.Cache().Invalidate(cache.KindRequests)
	return nil
}

// Submit moves a DRAFT or RETURNED request to SUBMITTED. The inbox cache is
// invalidated too: the request just became visible to approvers.
func (s *requestService) Submit(ctx context.Context, sess *session.Session, id string) error {
	if !sess.Begin(mutationKey(id)) {
		return ErrMutationInFlight
	}
	defer sess.End(mutationKey(id))

	if err := s.client.SubmitRequest(ctx, sess.Credentials(), id); err != nil {
		return err
	}
	sess.Cache().Invalidate(cache.KindRequests)
	sess.Cache().InvalidateKey(cache.KindRequest, id)
	sess.Cache().Invalidate(cache.KindInbox)
	return nil
}

func (s *requestService) Withdraw(ctx context.Context, sess *session.Session, id string) error {
	if !sess.Begin(mutationKey(id)) {
		return ErrMutationInFlight
	}
	defer sess.End(mutationKey(id))

	if err := s.client.WithdrawRequest(ctx, sess.Credentials(), id); err != nil {
		return err
	}
	sess.Cache().Invalidate(cache.KindRequests)
	sess.Cache().InvalidateKey(cache.KindRequest, id)
	return nil
}

// mutationKey is the shared in-flight key for every mutation touching one
// request, applicant- and approver-side alike.
func mutationKey(id string) string {
	return "request:" + id
}
