// Package service implements the chore-sharing rule engine: groups and their
// rosters, chores, chore logs, reminders and workload reports.
//
// Every operation takes the acting user's ID, checks the actor's role in the
// group, validates its input and returns an *Error on failure.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmynk/choreshare/internal/metrics"
	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

var tracer = otel.Tracer("github.com/mmynk/choreshare/internal/service")

// FutureTolerance is how far ahead of now a chore log may be dated.
const FutureTolerance = 24 * time.Hour

// EarliestOccurrence is the oldest time a chore log may be dated.
var EarliestOccurrence = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// options are shared by all service constructors.
type options struct {
	now      func() time.Time
	newCode  func() (string, error)
	location *time.Location
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithInviteCodeGenerator replaces models.GenerateInviteCode.
func WithInviteCodeGenerator(gen func() (string, error)) Option {
	return func(o *options) { o.newCode = gen }
}

// WithLocation sets the time zone used for calendar arithmetic
// (reminder fire times, report buckets).
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		newCode:  models.GenerateInviteCode,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) clock() time.Time {
	return o.now().UTC()
}

// startSpan opens a span for a service operation.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish records err on the span and in the error counter, then ends the span.
func finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		kind := KindOf(err)
		if kind == "" {
			kind = KindRepository
		}
		metrics.ServiceErrors.WithLabelValues(op, string(kind)).Inc()
	}
	span.End()
}

// logFailure logs a failed operation. Domain rejections are warnings,
// storage failures are errors.
func logFailure(op string, err error, args ...any) {
	args = append(args, "error", err)
	if kind := KindOf(err); kind != "" && kind != KindRepository {
		slog.Warn(op+" rejected", args...)
		return
	}
	slog.Error(op+" failed", args...)
}

func idAttr(key string, id uuid.UUID) attribute.KeyValue {
	return attribute.String(key, id.String())
}

// loadGroup fetches a group or fails with notFound.
func loadGroup(ctx context.Context, repos storage.Repositories, groupID uuid.UUID) (*models.Group, error) {
	group, err := repos.Groups().Fetch(ctx, groupID)
	if err != nil {
		return nil, repoFailure("fetch group", err)
	}
	if group == nil {
		return nil, notFound("group %s not found", groupID)
	}
	return group, nil
}

// requireMember returns the actor's role or fails with unauthorized.
func requireMember(group *models.Group, actorID uuid.UUID) (models.Role, error) {
	role, ok := group.RoleOf(actorID)
	if !ok {
		return "", unauthorized("user %s is not a member of group %s", actorID, group.ID)
	}
	return role, nil
}

func requireAdmin(group *models.Group, actorID uuid.UUID) error {
	role, err := requireMember(group, actorID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return unauthorized("admin role required")
	}
	return nil
}

func requireWriter(group *models.Group, actorID uuid.UUID) error {
	role, err := requireMember(group, actorID)
	if err != nil {
		return err
	}
	if !role.CanWrite() {
		return unauthorized("%s role cannot make changes", role)
	}
	return nil
}

// activeMember fetches a member of the group that has not been deleted.
// found is false when the member does not exist, is in another group or is deleted.
func activeMember(ctx context.Context, repos storage.Repositories, groupID, memberID uuid.UUID) (m *models.Member, found bool, err error) {
	m, err = repos.Members().Fetch(ctx, memberID)
	if err != nil {
		return nil, false, repoFailure("fetch member", err)
	}
	if m == nil || m.GroupID != groupID || m.IsDeleted() {
		return nil, false, nil
	}
	return m, true, nil
}

// isNotFound reports whether a repository delete missed its row.
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// trimOptional trims s and maps blank text to nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
