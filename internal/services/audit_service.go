package services

import (
	"context"
	"time"

	"github.com/Craig-Turley/listsync/internal/logging"
	"github.com/Craig-Turley/listsync/internal/repos"
	"github.com/Craig-Turley/listsync/pkg/common/list"
	"github.com/robfig/cron"
)

// AuditService reports lists that were stored locally but never got a
// MailChimp id, which is what a failed remote create leaves behind. It only
// reads and logs.
type AuditService struct {
	lists   repos.ListRepo
	timeout time.Duration
	cron    *cron.Cron
}

func NewAuditService(lists repos.ListRepo) *AuditService {
	return &AuditService{lists: lists, timeout: 30 * time.Second}
}

// Start runs the audit on a cron schedule, e.g. "@every 15m" or
// "0 */15 * * * *" (the first field is seconds).
func (a *AuditService) Start(schedule string) error {
	c := cron.New()
	if err := c.AddFunc(schedule, a.tick); err != nil {
		return err
	}

	a.cron = c
	c.Start()
	logging.Info().Str("schedule", schedule).Msg("unsynced list audit scheduled")
	return nil
}

func (a *AuditService) Stop() {
	if a.cron != nil {
		a.cron.Stop()
	}
}

func (a *AuditService) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if _, err := a.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("unsynced list audit failed")
	}
}

// Run logs every list without a MailChimp id and returns them.
func (a *AuditService) Run(ctx context.Context) ([]*list.List, error) {
	lists, err := a.lists.GetUnsyncedLists(ctx)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	for _, l := range lists {
		logging.Ctx(ctx).Warn().
			Str("list_id", l.Id.String()).
			Str("name", l.Name()).
			Msg("list has no MailChimp id")
	}

	logging.Ctx(ctx).Info().Int("unsynced", len(lists)).Msg("unsynced list audit finished")
	return lists, nil
}
