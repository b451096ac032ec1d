// Package reconcile drives one roster reconciliation pass: load the
// persisted baseline, fetch the live roster, diff the two, keep the
// display message current, announce changes, and persist the new
// baseline.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/staffwatch/staffwatch/internal/discord"
	"github.com/staffwatch/staffwatch/internal/roster"
	"github.com/staffwatch/staffwatch/internal/storage"
)

const defaultLookupConcurrency = 4

// Source provides the live roster and best-effort single-member grade
// lookups.
type Source interface {
	FetchRoster(ctx context.Context) (roster.Roster, error)
	MemberGrade(ctx context.Context, identity string) (grade string, ok bool)
}

// Config holds reconciler construction parameters.
type Config struct {
	Source     Source
	Snapshots  storage.SnapshotStore
	MessageRef storage.MessageRefStore
	Messenger  discord.Messenger

	// StaffChannelID receives the persistent roster display message.
	StaffChannelID string
	// AlertChannelID receives change announcements.
	AlertChannelID string
	// AlertRoleID is the only role the announcement may mention.
	AlertRoleID string

	// LookupConcurrency bounds parallel removed-member grade lookups.
	LookupConcurrency int
	Logger            *logrus.Logger
}

// Service is the reconciler. One Run is one complete pass; the service
// holds no state between runs beyond what its stores persist.
type Service struct {
	source            Source
	snapshots         storage.SnapshotStore
	messageRef        storage.MessageRefStore
	messenger         discord.Messenger
	staffChannelID    string
	alertChannelID    string
	alertRoleID       string
	lookupConcurrency int
	log               *logrus.Logger
	tracer            trace.Tracer
}

// New constructs a reconciler.
func New(cfg Config) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("roster source is required")
	}
	if cfg.Snapshots == nil {
		return nil, errors.New("snapshot store is required")
	}
	if cfg.MessageRef == nil {
		return nil, errors.New("message ref store is required")
	}
	if cfg.Messenger == nil {
		return nil, errors.New("messenger is required")
	}
	if cfg.StaffChannelID == "" || cfg.AlertChannelID == "" || cfg.AlertRoleID == "" {
		return nil, errors.New("staff channel, alert channel, and alert role ids are required")
	}
	svc := &Service{
		source:            cfg.Source,
		snapshots:         cfg.Snapshots,
		messageRef:        cfg.MessageRef,
		messenger:         cfg.Messenger,
		staffChannelID:    cfg.StaffChannelID,
		alertChannelID:    cfg.AlertChannelID,
		alertRoleID:       cfg.AlertRoleID,
		lookupConcurrency: cfg.LookupConcurrency,
		log:               cfg.Logger,
		tracer:            otel.Tracer("github.com/staffwatch/staffwatch/internal/reconcile"),
	}
	if svc.lookupConcurrency <= 0 {
		svc.lookupConcurrency = defaultLookupConcurrency
	}
	if svc.log == nil {
		svc.log = logrus.StandardLogger()
	}
	return svc, nil
}

// Run executes one reconciliation pass.
//
// The roster fetch is the only fatal step: it fails the run before any
// outbound side effect or persistence. Display update and alert
// delivery are best-effort and self-heal on the next run. The new
// snapshot is persisted unconditionally once the fetch succeeded, so a
// re-run against an unchanged source yields an empty diff and stays
// silent.
func (s *Service) Run(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "reconcile.run")
	defer span.End()

	runLog := s.log.WithField("run_id", uuid.NewString())

	previous := s.loadBaseline(ctx, runLog)

	current, err := s.fetchRoster(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("fetch roster: %w", err)
	}
	if len(previous) > 0 && len(current.Members) == 0 {
		runLog.Warn("fetched roster is empty while the baseline is not; every member will be reported removed")
	}

	diff := roster.Diff(previous, current.Members)
	span.SetAttributes(
		attribute.Int("roster.members", len(current.Members)),
		attribute.Int("roster.added", len(diff.Added)),
		attribute.Int("roster.removed", len(diff.Removed)),
		attribute.Int("roster.changed", len(diff.Changed)),
	)

	s.upsertDisplay(ctx, runLog, current)

	if !diff.Empty() {
		s.announce(ctx, runLog, diff, previous, current.Members)
	}

	if err := s.snapshots.Save(ctx, current.Members); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persist snapshot: %w", err)
	}

	runLog.WithFields(logrus.Fields{
		"members": len(current.Members),
		"added":   len(diff.Added),
		"removed": len(diff.Removed),
		"changed": len(diff.Changed),
	}).Info("reconciliation complete")
	return nil
}

func (s *Service) loadBaseline(ctx context.Context, runLog *logrus.Entry) roster.Snapshot {
	previous, err := s.snapshots.Load(ctx)
	if err != nil {
		runLog.WithError(err).Warn("could not load previous snapshot; starting from an empty baseline")
		return roster.Snapshot{}
	}
	if previous == nil {
		return roster.Snapshot{}
	}
	return previous
}

func (s *Service) fetchRoster(ctx context.Context) (roster.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "reconcile.fetch")
	defer span.End()
	return s.source.FetchRoster(ctx)
}

// upsertDisplay keeps the single roster message current: edit in place
// when the persisted reference still resolves, otherwise send a fresh
// message and persist its id. Failures are logged, never fatal; a
// missed update is re-sent on the next run.
func (s *Service) upsertDisplay(ctx context.Context, runLog *logrus.Entry, current roster.Roster) {
	ctx, span := s.tracer.Start(ctx, "reconcile.display")
	defer span.End()

	content := FormatDisplay(current)

	messageID, err := s.messageRef.Load(ctx)
	if err != nil {
		runLog.WithError(err).Warn("could not load display message id; sending a new message")
		messageID = ""
	}

	if messageID != "" {
		err := s.messenger.Edit(ctx, s.staffChannelID, messageID, content)
		switch {
		case err == nil:
			return
		case errors.Is(err, discord.ErrMessageNotFound):
			runLog.WithField("message_id", messageID).Info("display message is gone upstream; sending a replacement")
		default:
			span.RecordError(err)
			runLog.WithError(err).Warn("display message edit failed")
			return
		}
	}

	newID, err := s.messenger.Send(ctx, s.staffChannelID, content)
	if err != nil {
		span.RecordError(err)
		runLog.WithError(err).Warn("display message send failed")
		return
	}
	if err := s.messageRef.Save(ctx, newID); err != nil {
		span.RecordError(err)
		runLog.WithError(err).Warn("could not persist display message id; next run will send another message")
	}
}

func (s *Service) announce(ctx context.Context, runLog *logrus.Entry, diff roster.DiffResult, previous, current roster.Snapshot) {
	ctx, span := s.tracer.Start(ctx, "reconcile.alert")
	defer span.End()

	removedGrades := s.resolveRemovedGrades(ctx, diff.Removed)
	content := FormatAlert(diff, previous, current, removedGrades, s.alertRoleID)

	if err := s.messenger.SendRoleAlert(ctx, s.alertChannelID, s.alertRoleID, content); err != nil {
		span.RecordError(err)
		runLog.WithError(err).Warn("alert send failed")
	}
}

// resolveRemovedGrades fans out a grade lookup per removed member with
// bounded concurrency. Each lookup is isolated: a failure only marks
// that one member absent, it never cancels its siblings.
func (s *Service) resolveRemovedGrades(ctx context.Context, removed []string) map[string]string {
	if len(removed) == 0 {
		return nil
	}

	grades := make([]string, len(removed))
	found := make([]bool, len(removed))

	var g errgroup.Group
	g.SetLimit(s.lookupConcurrency)
	for i, name := range removed {
		g.Go(func() error {
			grade, ok := s.source.MemberGrade(ctx, name)
			if ok {
				grades[i] = grade
				found[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	resolved := make(map[string]string, len(removed))
	for i, name := range removed {
		if found[i] {
			resolved[name] = grades[i]
		}
	}
	return resolved
}
