package service

import (
	"context"
	"errors"
	"strings"

	"expenseweb/internal/api"
	"expenseweb/internal/cache"
	"expenseweb/internal/session"
)

// ErrCommentRequired is returned when a return or reject is attempted with a
// blank comment. No network call is made; the upstream enforces the same
// rule with a 400.
var ErrCommentRequired = errors.New("comment must not be empty")

// InboxService is the approver's view: the pending queue and the three
// terminal decisions on a submitted request.
type InboxService interface {
	List(ctx context.Context, sess *session.Session) ([]api.Request, error)
	Get(ctx context.Context, sess *session.Session, id string) (api.Request, error)
	Approve(ctx context.Context, sess *session.Session, id string) error
	Return(ctx context.Context, sess *session.Session, id, comment string) error
	Reject(ctx context.Context, sess *session.Session, id, comment string) error
}

type inboxService struct {
	client *api.Client
}

func NewInboxService(client *api.Client) InboxService {
	return &inboxService{client: client}
}

func (s *inboxService) List(ctx context.Context, sess *session.Session) ([]api.Request, error) {
	return cache.Fetch(sess.Cache(), cache.Key{Kind: cache.KindInbox}, func() ([]api.Request, error) {
		return s.client.Inbox(ctx, sess.Credentials())
	})
}

func (s *inboxService) Get(ctx context.Context, sess *session.Session, id string) (api.Request, error) {
	return cache.Fetch(sess.Cache(), cache.Key{Kind: cache.KindInboxDetail, ID: id}, func() (api.Request, error) {
		return s.client.InboxDetail(ctx, sess.Credentials(), id)
	})
}

func (s *inboxService) Approve(ctx context.Context, sess *session.Session, id string) error {
	return s.decide(sess, id, func() error {
		return s.client.Approve(ctx, sess.Credentials(), id)
	})
}

func (s *inboxService) Return(ctx context.Context, sess *session.Session, id, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return ErrCommentRequired
	}
	return s.decide(sess, id, func() error {
		return s.client.Return(ctx, sess.Credentials(), id, comment)
	})
}

func (s *inboxService) Reject(ctx context.Context, sess *session.Session, id, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return ErrCommentRequired
	}
	return s.decide(sess, id, func() error {
		return s.client.Reject(ctx, sess.Credentials(), id, comment)
	})
}

// decide wraps the three decision mutations: they share one in-flight key per
// request, so approve/return/reject are mutually exclusive while pending.
func (s *inboxService) decide(sess *session.Session, id string, call func() error) error {
	if !sess.Begin(mutationKey(id)) {
		return ErrMutationInFlight
	}
	defer sess.End(mutationKey(id))

	if err := call(); err != nil {
		return err
	}
	sess.Cache().Invalidate(cache.KindInbox)
	sess.Cache().InvalidateKey(cache.KindInboxDetail, id)
	return nil
}
