// Package memory provides an in-memory implementation of the storage.Store interface.
// It is used by service tests and for running the server without a database file.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// table keeps rows keyed by ID and remembers insertion order.
type table[T any] struct {
	rows  map[uuid.UUID]T
	order []uuid.UUID
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[uuid.UUID]T)}
}

func (t *table[T]) get(id uuid.UUID) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id uuid.UUID, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) remove(id uuid.UUID) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// each visits rows in insertion order.
func (t *table[T]) each(fn func(T)) {
	for _, id := range t.order {
		fn(t.rows[id])
	}
}

func (t *table[T]) clone(copyRow func(T) T) *table[T] {
	c := &table[T]{
		rows:  make(map[uuid.UUID]T, len(t.rows)),
		order: append([]uuid.UUID(nil), t.order...),
	}
	for id, v := range t.rows {
		c.rows[id] = copyRow(v)
	}
	return c
}

// data is the full state of the store.
type data struct {
	groups    *table[*models.Group]
	members   *table[*models.Member]
	chores    *table[*models.Chore]
	logs      *table[*models.ChoreLog]
	invites   *table[*models.GroupInvite]
	reminders *table[*models.Reminder]
}

func newData() *data {
	return &data{
		groups:    newTable[*models.Group](),
		members:   newTable[*models.Member](),
		chores:    newTable[*models.Chore](),
		logs:      newTable[*models.ChoreLog](),
		invites:   newTable[*models.GroupInvite](),
		reminders: newTable[*models.Reminder](),
	}
}

func (d *data) snapshot() *data {
	return &data{
		groups:    d.groups.clone(copyGroup),
		members:   d.members.clone(copyMember),
		chores:    d.chores.clone(copyChore),
		logs:      d.logs.clone(copyLog),
		invites:   d.invites.clone(copyInvite),
		reminders: d.reminders.clone(copyReminder),
	}
}

// Store is a mutex-guarded in-memory store.
//
// Atomically holds the store lock for the whole unit of work, so transactions
// are serialized against each other and against plain repository calls.
type Store struct {
	mu   sync.Mutex
	data *data
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: newData()}
}

// repos is the set of repositories bound to a store. When held is true the
// caller already owns the store lock.
type repos struct {
	s    *Store
	held bool
}

func (r repos) with(fn func(d *data) error) error {
	if !r.held {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn(r.s.data)
}

func (s *Store) Groups() storage.GroupRepository { return groupRepo{repos{s: s}} }
func (s *Store) Members() storage.MemberRepository { return memberRepo{repos{s: s}} }
func (s *Store) Chores() storage.ChoreRepository { return choreRepo{repos{s: s}} }
func (s *Store) ChoreLogs() storage.ChoreLogRepository { return logRepo{repos{s: s}} }
func (s *Store) Invites() storage.GroupInviteRepository { return inviteRepo{repos{s: s}} }
func (s *Store) Reminders() storage.ReminderRepository { return reminderRepo{repos{s: s}} }

// txRepos exposes repositories that run under an already-held lock.
type txRepos struct {
	s *Store
}

func (t txRepos) Groups() storage.GroupRepository { return groupRepo{repos{s: t.s, held: true}} }
func (t txRepos) Members() storage.MemberRepository { return memberRepo{repos{s: t.s, held: true}} }
func (t txRepos) Chores() storage.ChoreRepository { return choreRepo{repos{s: t.s, held: true}} }
func (t txRepos) ChoreLogs() storage.ChoreLogRepository { return logRepo{repos{s: t.s, held: true}} }
func (t txRepos) Invites() storage.GroupInviteRepository { return inviteRepo{repos{s: t.s, held: true}} }
func (t txRepos) Reminders() storage.ReminderRepository { return reminderRepo{repos{s: t.s, held: true}} }

// Atomically runs fn with exclusive access to the store. If fn fails, the
// state from before the call is restored.
func (s *Store) Atomically(ctx context.Context, fn func(storage.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.data.snapshot()
	if err := fn(txRepos{s: s}); err != nil {
		s.data = saved
		return err
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func copyGroup(g *models.Group) *models.Group {
	return g.Clone()
}

func copyMember(m *models.Member) *models.Member {
	c := *m
	return &c
}

func copyChore(ch *models.Chore) *models.Chore {
	c := *ch
	if ch.Frequency.Rule != nil {
		rule := *ch.Frequency.Rule
		rule.Weekdays = append([]int(nil), rule.Weekdays...)
		c.Frequency.Rule = &rule
	}
	return &c
}

func copyLog(l *models.ChoreLog) *models.ChoreLog {
	c := *l
	return &c
}

func copyInvite(i *models.GroupInvite) *models.GroupInvite {
	c := *i
	return &c
}

func copyReminder(r *models.Reminder) *models.Reminder {
	c := *r
	c.Schedule.Weekdays = append([]int(nil), r.Schedule.Weekdays...)
	return &c
}
