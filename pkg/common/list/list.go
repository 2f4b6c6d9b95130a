package list

import (
	"slices"

	"github.com/Craig-Turley/listsync/internal/validation"
	"github.com/Craig-Turley/listsync/pkg/common/entity"
	"github.com/Craig-Turley/listsync/pkg/idgen"
	"github.com/bwmarrin/snowflake"
)

const (
	FieldName                = "name"
	FieldPermissionReminder  = "permissionReminder"
	FieldUseArchiveBar       = "useArchiveBar"
	FieldContact             = "contact"
	FieldCampaignDefaults    = "campaignDefaults"
	FieldNotifyOnSubscribe   = "notifyOnSubscribe"
	FieldNotifyOnUnsubscribe = "notifyOnUnsubscribe"
	FieldEmailTypeOption     = "emailTypeOption"
	FieldVisibility          = "visibility"
)

// Every list field is a top-level remote field; merge_fields stays empty.
var Schema = entity.Schema{
	Fields: []entity.Field{
		{Name: FieldName, TopLevel: true},
		{Name: FieldPermissionReminder, TopLevel: true},
		{Name: FieldUseArchiveBar, TopLevel: true},
		{Name: FieldContact, TopLevel: true},
		{Name: FieldCampaignDefaults, TopLevel: true},
		{Name: FieldNotifyOnSubscribe, TopLevel: true},
		{Name: FieldNotifyOnUnsubscribe, TopLevel: true},
		{Name: FieldEmailTypeOption, TopLevel: true},
		{Name: FieldVisibility, TopLevel: true},
	},
}

// List is a mailing list mirrored to MailChimp. MailChimpId stays nil until
// the first successful remote create.
type List struct {
	Id          snowflake.ID
	MailChimpId *string
	attrs       entity.Attributes
	members     []snowflake.ID
}

func New(data map[string]any) *List {
	l := &List{
		Id:    idgen.NewId(),
		attrs: entity.Attributes{},
	}
	l.Fill(data)
	return l
}

// Restore rebuilds a stored list without generating a new id.
func Restore(id snowflake.ID, mailChimpId *string, attrs entity.Attributes, members []snowflake.ID) *List {
	if attrs == nil {
		attrs = entity.Attributes{}
	}
	return &List{
		Id:          id,
		MailChimpId: mailChimpId,
		attrs:       attrs,
		members:     slices.Clone(members),
	}
}

func (l *List) Fill(data map[string]any) *List {
	Schema.Fill(l.attrs, data)
	return l
}

func (l *List) SetMailChimpId(id string) *List {
	l.MailChimpId = &id
	return l
}

func (l *List) HasMailChimpId() bool {
	return l.MailChimpId != nil && *l.MailChimpId != ""
}

func (l *List) Name() string {
	return l.attrs.String(FieldName)
}

// Attributes returns a copy of the stored field values.
func (l *List) Attributes() entity.Attributes {
	return l.attrs.Copy()
}

func (l *List) AddMember(id snowflake.ID) {
	if !l.HasMember(id) {
		l.members = append(l.members, id)
	}
}

func (l *List) RemoveMember(id snowflake.ID) {
	l.members = slices.DeleteFunc(l.members, func(m snowflake.ID) bool { return m == id })
}

func (l *List) HasMember(id snowflake.ID) bool {
	return slices.Contains(l.members, id)
}

func (l *List) Members() []snowflake.ID {
	return slices.Clone(l.members)
}

func (l *List) ToLocalView() map[string]any {
	view := Schema.LocalView(l.attrs)
	view["list_id"] = l.Id.String()
	if l.MailChimpId != nil {
		view["mail_chimp_id"] = *l.MailChimpId
	} else {
		view["mail_chimp_id"] = nil
	}
	return view
}

func (l *List) ToRemoteView() map[string]any {
	return Schema.RemoteView(l.attrs)
}

func (l *List) ValidationRules() validation.Rules {
	return validation.Rules{
		"name":                         "required|string",
		"permission_reminder":          "nullable|string",
		"use_archive_bar":              "nullable|boolean",
		"email_type_option":            "nullable|boolean",
		"visibility":                   "nullable|string|in:pub,prv",
		"notify_on_subscribe":          "nullable|email",
		"notify_on_unsubscribe":        "nullable|email",
		"contact":                      "nullable|array",
		"contact.company":              "required_with:contact|string",
		"contact.address1":             "required_with:contact|string",
		"contact.address2":             "nullable|string",
		"contact.city":                 "required_with:contact|string",
		"contact.state":                "required_with:contact|string",
		"contact.zip":                  "required_with:contact|string",
		"contact.country":              "required_with:contact|string",
		"contact.phone":                "nullable|string",
		"campaign_defaults":            "nullable|array",
		"campaign_defaults.from_name":  "required_with:campaign_defaults|string",
		"campaign_defaults.from_email": "required_with:campaign_defaults|email",
		"campaign_defaults.subject":    "required_with:campaign_defaults|string",
		"campaign_defaults.language":   "required_with:campaign_defaults|string",
	}
}
