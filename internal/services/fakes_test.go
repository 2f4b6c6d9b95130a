package services_test

import (
	"context"
	"errors"
	"sync"

	"github.com/Craig-Turley/listsync/internal/mailchimp"
	"github.com/Craig-Turley/listsync/internal/repos"
	"github.com/Craig-Turley/listsync/pkg/common/list"
	"github.com/Craig-Turley/listsync/pkg/common/member"
	"github.com/bwmarrin/snowflake"
)

// fakeStore keeps copies so tests see only what was saved.
type fakeStore struct {
	mu      sync.Mutex
	lists   map[snowflake.ID]*list.List
	members map[snowflake.ID]*member.Member

	listSaves     int
	listDeletes   int
	memberSaves   int
	memberDeletes int

	saveListErr   error
	saveMemberErr error

	// beforeGetMember runs outside the store mutex.
	beforeGetMember func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists:   map[snowflake.ID]*list.List{},
		members: map[snowflake.ID]*member.Member{},
	}
}

func (f *fakeStore) storage() *repos.Storage {
	return &repos.Storage{Lists: (*fakeLists)(f), Members: (*fakeMembers)(f)}
}

func (f *fakeStore) writes() int {
	return f.listSaves + f.listDeletes + f.memberSaves + f.memberDeletes
}

func copyList(l *list.List) *list.List {
	var mcId *string
	if l.MailChimpId != nil {
		id := *l.MailChimpId
		mcId = &id
	}
	return list.Restore(l.Id, mcId, l.Attributes(), l.Members())
}

func copyMember(m *member.Member) *member.Member {
	return member.Restore(m.Id, m.ListId, m.Attributes())
}

// seedList stores l without counting it as a write.
func (f *fakeStore) seedList(l *list.List) {
	f.lists[l.Id] = copyList(l)
}

func (f *fakeStore) seedMember(m *member.Member) {
	f.members[m.Id] = copyMember(m)
}

type fakeLists fakeStore

func (r *fakeLists) GetList(ctx context.Context, id snowflake.ID) (*list.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	out := copyList(l)
	for _, m := range r.members {
		if m.ListId == id {
			out.AddMember(m.Id)
		}
	}
	return out, nil
}

func (r *fakeLists) SaveList(ctx context.Context, l *list.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveListErr != nil {
		return r.saveListErr
	}
	r.listSaves++
	r.lists[l.Id] = copyList(l)
	return nil
}

func (r *fakeLists) DeleteList(ctx context.Context, l *list.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listDeletes++
	delete(r.lists, l.Id)
	for id, m := range r.members {
		if m.ListId == l.Id {
			delete(r.members, id)
		}
	}
	return nil
}

func (r *fakeLists) GetUnsyncedLists(ctx context.Context) ([]*list.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*list.List
	for _, l := range r.lists {
		if l.MailChimpId == nil {
			out = append(out, copyList(l))
		}
	}
	return out, nil
}

type fakeMembers fakeStore

func (r *fakeMembers) GetMember(ctx context.Context, id snowflake.ID) (*member.Member, error) {
	if r.beforeGetMember != nil {
		r.beforeGetMember()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	return copyMember(m), nil
}

func (r *fakeMembers) SaveMember(ctx context.Context, m *member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveMemberErr != nil {
		return r.saveMemberErr
	}
	r.memberSaves++
	r.members[m.Id] = copyMember(m)
	return nil
}

func (r *fakeMembers) DeleteMember(ctx context.Context, m *member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.memberDeletes++
	delete(r.members, m.Id)
	return nil
}

func (r *fakeMembers) GetListMembers(ctx context.Context, listId snowflake.ID) ([]*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*member.Member{}
	for _, m := range r.members {
		if m.ListId == listId {
			out = append(out, copyMember(m))
		}
	}
	return out, nil
}

type remoteCall struct {
	Method string
	Path   string
	Body   any
}

type fakeRemote struct {
	calls    []remoteCall
	response map[string]any
	err      error
}

var errRemoteDown = errors.New("mailchimp unreachable")

func (f *fakeRemote) do(method, path string, body any) (*mailchimp.Response, error) {
	f.calls = append(f.calls, remoteCall{Method: method, Path: path, Body: body})
	if f.err != nil {
		return nil, f.err
	}
	resp := f.response
	if resp == nil {
		resp = map[string]any{}
	}
	return &mailchimp.Response{StatusCode: 200, Body: resp}, nil
}

func (f *fakeRemote) Post(ctx context.Context, path string, body any) (*mailchimp.Response, error) {
	return f.do("POST", path, body)
}

func (f *fakeRemote) Patch(ctx context.Context, path string, body any) (*mailchimp.Response, error) {
	return f.do("PATCH", path, body)
}

func (f *fakeRemote) Delete(ctx context.Context, path string) (*mailchimp.Response, error) {
	return f.do("DELETE", path, nil)
}
