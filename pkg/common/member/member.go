package member

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/Craig-Turley/listsync/internal/validation"
	"github.com/Craig-Turley/listsync/pkg/common/entity"
	"github.com/Craig-Turley/listsync/pkg/idgen"
	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusSubscribed    Status = "subscribed"
	StatusUnsubscribed  Status = "unsubscribed"
	StatusCleaned       Status = "cleaned"
	StatusPending       Status = "pending"
	StatusTransactional Status = "transactional"
)

var Statuses = []Status{StatusSubscribed, StatusUnsubscribed, StatusCleaned, StatusPending, StatusTransactional}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

const (
	FieldEmailAddress = "emailAddress"
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldAddress      = "address"
	FieldPhoneNumber  = "phoneNumber"
	FieldStatus       = "status"
)

var Schema = entity.Schema{
	Fields: []entity.Field{
		{Name: FieldEmailAddress, TopLevel: true},
		{Name: FieldFirstName},
		{Name: FieldLastName},
		{Name: FieldAddress},
		{Name: FieldPhoneNumber},
		{Name: FieldStatus, TopLevel: true},
	},
	MergeKey: MergeFieldKey,
}

var mergeFieldOverrides = map[string]string{
	FieldFirstName: "FNAME",
	FieldLastName:  "LNAME",
}

// MergeFieldKey maps an internal field name to the remote merge tag.
func MergeFieldKey(name string) string {
	if tag, ok := mergeFieldOverrides[name]; ok {
		return tag
	}
	return strings.ToUpper(name)
}

// SubscriberHash is the remote member id: md5 of the lower-cased email.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// Member is one subscriber of a list. ListId is a lookup reference only.
type Member struct {
	Id     snowflake.ID
	ListId snowflake.ID
	attrs  entity.Attributes
}

func New(listId snowflake.ID, data map[string]any) *Member {
	m := &Member{
		Id:     idgen.NewId(),
		ListId: listId,
		attrs:  entity.Attributes{},
	}
	m.Fill(data)
	return m
}

// Restore rebuilds a stored member without generating a new id.
func Restore(id, listId snowflake.ID, attrs entity.Attributes) *Member {
	if attrs == nil {
		attrs = entity.Attributes{}
	}
	return &Member{Id: id, ListId: listId, attrs: attrs}
}

func (m *Member) Fill(data map[string]any) *Member {
	Schema.Fill(m.attrs, data)
	return m
}

// Attributes returns a copy of the stored field values.
func (m *Member) Attributes() entity.Attributes {
	return m.attrs.Copy()
}

func (m *Member) EmailAddress() string { return m.attrs.String(FieldEmailAddress) }
func (m *Member) FirstName() string    { return m.attrs.String(FieldFirstName) }
func (m *Member) LastName() string     { return m.attrs.String(FieldLastName) }
func (m *Member) Address() string      { return m.attrs.String(FieldAddress) }
func (m *Member) PhoneNumber() string  { return m.attrs.String(FieldPhoneNumber) }
func (m *Member) Status() Status       { return Status(m.attrs.String(FieldStatus)) }

// SubscriberHash derives the remote id from the current email. Capture it
// before Fill when the email may change.
func (m *Member) SubscriberHash() string {
	return SubscriberHash(m.EmailAddress())
}

func (m *Member) ToLocalView() map[string]any {
	view := Schema.LocalView(m.attrs)
	view["member_id"] = m.Id.String()
	return view
}

func (m *Member) ToRemoteView() map[string]any {
	return Schema.RemoteView(m.attrs)
}

func (m *Member) ValidationRules() validation.Rules {
	return validation.Rules{
		"email_address": "required|email",
		"status":        "required|string|in:" + statusList(),
		"first_name":    "nullable|string",
		"last_name":     "nullable|string",
		"address":       "nullable|string",
		"phone_number":  "nullable|string",
	}
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}
