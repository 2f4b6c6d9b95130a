package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Craig-Turley/listsync/internal/locks"
	"github.com/Craig-Turley/listsync/internal/logging"
	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/Craig-Turley/listsync/internal/repos"
	"github.com/Craig-Turley/listsync/internal/validation"
	"github.com/Craig-Turley/listsync/pkg/common/list"
	"github.com/Craig-Turley/listsync/pkg/common/member"
	"github.com/Craig-Turley/listsync/pkg/utils"
	"github.com/bwmarrin/snowflake"
)

// SyncService keeps lists and members in the local store and MailChimp in
// step. Every mutation runs find, fill, validate, persist, remote call and
// (for list creation) a second persist, in that order, under a per-entity
// lock.
type SyncService struct {
	lists   repos.ListRepo
	members repos.MemberRepo
	remote  Remote
	locker  locks.Locker
}

func NewSyncService(store *repos.Storage, remote Remote, locker locks.Locker) *SyncService {
	if locker == nil {
		locker = locks.NewStripedLocker(0)
	}
	return &SyncService{
		lists:   store.Lists,
		members: store.Members,
		remote:  remote,
		locker:  locker,
	}
}

func listPath(mailChimpId string) string {
	return "lists/" + mailChimpId
}

func membersPath(mailChimpId string) string {
	return listPath(mailChimpId) + "/members"
}

func memberPath(mailChimpId, hash string) string {
	return membersPath(mailChimpId) + "/" + hash
}

func (s *SyncService) CreateList(ctx context.Context, data map[string]any) (*Result, error) {
	l := list.New(data)

	if ok, errs := validation.Validate(l.ToRemoteView(), l.ValidationRules()); !ok {
		return nil, &ValidationError{Errors: errs}
	}

	if err := s.lists.SaveList(ctx, l); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	resp, err := s.remote.Post(ctx, "lists", l.ToRemoteView())
	if err != nil {
		return nil, s.remoteFailure(ctx, err, "create list", l.Id)
	}

	mailChimpId := resp.Get("id")
	if mailChimpId == "" {
		return nil, s.remoteFailure(ctx, oops.New(nil, "MailChimp returned no id for list %d", l.Id), "create list", l.Id)
	}

	l.SetMailChimpId(mailChimpId)
	if err := s.lists.SaveList(ctx, l); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("list_id", l.Id.String()).
			Str("mail_chimp_id", mailChimpId).
			Msg("list created remotely but its MailChimp id was not stored")
		return nil, &PersistenceError{Err: err, Outcome: OutcomeLocalOnly}
	}

	logging.Ctx(ctx).Info().Str("list_id", l.Id.String()).Str("mail_chimp_id", mailChimpId).Msg("list created")
	return &Result{Outcome: OutcomeSynced, View: l.ToLocalView()}, nil
}

func (s *SyncService) GetList(ctx context.Context, listId snowflake.ID) (map[string]any, error) {
	l, err := s.findList(ctx, listId)
	if err != nil {
		return nil, err
	}
	return l.ToLocalView(), nil
}

func (s *SyncService) UpdateList(ctx context.Context, listId snowflake.ID, data map[string]any) (*Result, error) {
	unlock, err := s.lock(ctx, locks.ListKey(listId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, err := s.findList(ctx, listId)
	if err != nil {
		return nil, err
	}

	l.Fill(data)

	if ok, errs := validation.Validate(l.ToRemoteView(), l.ValidationRules()); !ok {
		return nil, &ValidationError{Errors: errs}
	}

	if !l.HasMailChimpId() {
		return nil, notSynced(l)
	}

	if err := s.lists.SaveList(ctx, l); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	if _, err := s.remote.Patch(ctx, listPath(*l.MailChimpId), l.ToRemoteView()); err != nil {
		return nil, s.remoteFailure(ctx, err, "update list", l.Id)
	}

	return &Result{Outcome: OutcomeSynced, View: l.ToLocalView()}, nil
}

// RemoveList deletes the list and its members locally, then remotely. A list
// that never reached MailChimp only needs the local delete.
func (s *SyncService) RemoveList(ctx context.Context, listId snowflake.ID) (*Result, error) {
	unlock, err := s.lock(ctx, locks.ListKey(listId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, err := s.findList(ctx, listId)
	if err != nil {
		return nil, err
	}

	if err := s.lists.DeleteList(ctx, l); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	if l.HasMailChimpId() {
		if _, err := s.remote.Delete(ctx, listPath(*l.MailChimpId)); err != nil {
			return nil, s.remoteFailure(ctx, err, "remove list", l.Id)
		}
	}

	return &Result{Outcome: OutcomeSynced, View: map[string]any{}}, nil
}

func (s *SyncService) CreateMember(ctx context.Context, listId snowflake.ID, data map[string]any) (*Result, error) {
	unlock, err := s.lock(ctx, locks.ListKey(listId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, err := s.findList(ctx, listId)
	if err != nil {
		return nil, err
	}

	m := member.New(l.Id, data)

	if ok, errs := validation.Validate(data, m.ValidationRules()); !ok {
		return nil, &ValidationError{Errors: errs}
	}

	if !l.HasMailChimpId() {
		return nil, notSynced(l)
	}

	l.AddMember(m.Id)

	if err := s.members.SaveMember(ctx, m); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if err := s.lists.SaveList(ctx, l); err != nil {
		return nil, &PersistenceError{Err: err, Outcome: OutcomeLocalOnly}
	}

	resp, err := s.remote.Post(ctx, membersPath(*l.MailChimpId), m.ToRemoteView())
	if err != nil {
		return nil, s.remoteFailure(ctx, err, "create member", m.Id)
	}

	// the remote id of a member is always the subscriber hash
	if remoteId := resp.Get("id"); remoteId != "" && remoteId != m.SubscriberHash() {
		logging.Ctx(ctx).Warn().
			Str("member_id", m.Id.String()).
			Str("expected", m.SubscriberHash()).
			Str("got", remoteId).
			Msg("MailChimp member id does not match subscriber hash")
	}

	return &Result{Outcome: OutcomeSynced, View: l.ToLocalView()}, nil
}

func (s *SyncService) ListMembers(ctx context.Context, listId snowflake.ID) ([]map[string]any, error) {
	l, err := s.findList(ctx, listId)
	if err != nil {
		return nil, err
	}

	members, err := s.members.GetListMembers(ctx, l.Id)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	views := make([]map[string]any, 0, len(members))
	for _, m := range members {
		views = append(views, m.ToLocalView())
	}
	return views, nil
}

// UpdateMember patches the remote record addressed by the hash of the email
// the member had before this update.
func (s *SyncService) UpdateMember(ctx context.Context, listId, memberId snowflake.ID, data map[string]any) (*Result, error) {
	unlock, err := s.lock(ctx, locks.ListKey(listId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, m, err := s.findMember(ctx, listId, memberId)
	if err != nil {
		return nil, err
	}

	if ok, errs := validation.Validate(data, m.ValidationRules()); !ok {
		return nil, &ValidationError{Errors: errs}
	}

	if !l.HasMailChimpId() {
		return nil, notSynced(l)
	}

	oldHash := m.SubscriberHash()
	m.Fill(data)

	if err := s.members.SaveMember(ctx, m); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	if _, err := s.remote.Patch(ctx, memberPath(*l.MailChimpId, oldHash), m.ToRemoteView()); err != nil {
		return nil, s.remoteFailure(ctx, err, "update member", m.Id)
	}

	return &Result{Outcome: OutcomeSynced, View: l.ToLocalView()}, nil
}

func (s *SyncService) RemoveMember(ctx context.Context, listId, memberId snowflake.ID) (*Result, error) {
	unlock, err := s.lock(ctx, locks.ListKey(listId))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, m, err := s.findMember(ctx, listId, memberId)
	if err != nil {
		return nil, err
	}

	if err := s.members.DeleteMember(ctx, m); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	l.RemoveMember(m.Id)

	if l.HasMailChimpId() {
		if _, err := s.remote.Delete(ctx, memberPath(*l.MailChimpId, m.SubscriberHash())); err != nil {
			return nil, s.remoteFailure(ctx, err, "remove member", m.Id)
		}
	}

	return &Result{Outcome: OutcomeSynced, View: map[string]any{}}, nil
}

func (s *SyncService) lock(ctx context.Context, key string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, oops.New(err, utils.ERROR_LOCK_NOT_ACQUIRED, key)
	}
	return unlock, nil
}

func (s *SyncService) findList(ctx context.Context, id snowflake.ID) (*list.List, error) {
	l, err := s.lists.GetList(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, &NotFoundError{Kind: KindList, Id: id.String()}
	}
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return l, nil
}

// findMember loads both ends. A member addressed under a list it does not
// belong to is reported as not found.
func (s *SyncService) findMember(ctx context.Context, listId, memberId snowflake.ID) (*list.List, *member.Member, error) {
	l, err := s.findList(ctx, listId)
	if err != nil {
		return nil, nil, err
	}

	m, err := s.members.GetMember(ctx, memberId)
	if errors.Is(err, repos.ErrNotFound) || (err == nil && m.ListId != l.Id) {
		return nil, nil, &NotFoundError{Kind: KindMember, Id: memberId.String()}
	}
	if err != nil {
		return nil, nil, &PersistenceError{Err: err}
	}

	return l, m, nil
}

// remoteFailure is only called after a local write has committed.
func (s *SyncService) remoteFailure(ctx context.Context, err error, op string, id snowflake.ID) error {
	logging.Ctx(ctx).Warn().Err(err).
		Str("op", op).
		Str("id", id.String()).
		Msg("local write committed but MailChimp call failed")
	return &RemoteError{Err: err, Outcome: OutcomeLocalOnly}
}

func notSynced(l *list.List) error {
	return &PreconditionError{Message: fmt.Sprintf(utils.ERROR_LIST_NOT_SYNCED, l.Id.String())}
}
