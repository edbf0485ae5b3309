package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

// ChoreDraft holds the input for CreateChore.
type ChoreDraft struct {
	Title             string
	Weight            int
	Notes             *string
	IsFavorite        bool
	Category          models.Category
	DefaultAssigneeID *uuid.UUID
	EstimatedMinutes  *int
	Frequency         models.Frequency
}

// ChorePatch lists the chore fields to change. Nil and unset fields are left alone.
type ChorePatch struct {
	Title             *string
	Weight            *int
	Notes             models.Patch[string]
	IsFavorite        *bool
	Category          *models.Category
	DefaultAssigneeID models.Patch[uuid.UUID]
	EstimatedMinutes  models.Patch[int]
	Frequency         *models.Frequency
}

// ChoreService manages chore definitions within a group.
type ChoreService struct {
	store storage.Store
	opts  options
}

// NewChoreService creates a new ChoreService with the given storage backend.
func NewChoreService(store storage.Store, opts ...Option) *ChoreService {
	return &ChoreService{store: store, opts: buildOptions(opts)}
}

// validateChore checks the field invariants of a chore about to be saved.
func validateChore(c *models.Chore) error {
	if c.Title == "" {
		return invalid("chore title must not be empty")
	}
	if !models.IsValidWeight(c.Weight) {
		return invalid("weight %d is not one of %v", c.Weight, models.AllowedWeights)
	}
	if !c.Category.Valid() {
		return invalid("unknown category %q", c.Category)
	}
	if c.EstimatedMinutes != nil && *c.EstimatedMinutes <= 0 {
		return invalid("estimated minutes must be positive")
	}
	if err := c.Frequency.Validate(); err != nil {
		return invalid("invalid frequency: %v", err)
	}
	return nil
}

// checkAssignee requires a newly chosen default assignee to be an active member.
func checkAssignee(ctx context.Context, repos storage.Repositories, groupID uuid.UUID, assigneeID *uuid.UUID) error {
	if assigneeID == nil {
		return nil
	}
	_, found, err := activeMember(ctx, repos, groupID, *assigneeID)
	if err != nil {
		return err
	}
	if !found {
		return invalid("default assignee %s is not an active member of the group", *assigneeID)
	}
	return nil
}

// CreateChore defines a new chore in the group. Viewers cannot create chores.
func (s *ChoreService) CreateChore(ctx context.Context, groupID, actorID uuid.UUID, draft ChoreDraft) (chore *models.Chore, err error) {
	ctx, span := startSpan(ctx, "ChoreService.CreateChore", idAttr("group_id", groupID))
	defer func() { finish(span, "CreateChore", err) }()

	slog.Info("CreateChore request received",
		"group_id", groupID,
		"actor_id", actorID,
		"title", draft.Title,
		"weight", draft.Weight,
	)

	now := s.opts.clock()
	c := &models.Chore{
		ID:                uuid.New(),
		GroupID:           groupID,
		Title:             strings.TrimSpace(draft.Title),
		Weight:            draft.Weight,
		Notes:             trimOptional(draft.Notes),
		IsFavorite:        draft.IsFavorite,
		Category:          draft.Category,
		DefaultAssigneeID: draft.DefaultAssigneeID,
		EstimatedMinutes:  draft.EstimatedMinutes,
		Frequency:         draft.Frequency,
		CreatedAt:         now,
		CreatedBy:         actorID,
		UpdatedAt:         now,
		UpdatedBy:         actorID,
	}
	if c.Category == "" {
		c.Category = models.CategoryOther
	}
	if c.Frequency.Kind == "" {
		c.Frequency = models.OnDemand()
	}

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}
		if err := validateChore(c); err != nil {
			return err
		}
		if err := checkAssignee(ctx, repos, groupID, c.DefaultAssigneeID); err != nil {
			return err
		}
		if err := repos.Chores().Save(ctx, c); err != nil {
			return repoFailure("save chore", err)
		}
		return nil
	})
	if err != nil {
		err = repoFailure("create chore", err)
		logFailure("CreateChore", err, "group_id", groupID)
		return nil, err
	}

	slog.Info("Chore created", "group_id", groupID, "chore_id", c.ID)
	return c, nil
}

// UpdateChore applies the present patch fields. A rejected patch leaves the
// stored chore unchanged.
func (s *ChoreService) UpdateChore(ctx context.Context, choreID, groupID, actorID uuid.UUID, patch ChorePatch) (chore *models.Chore, err error) {
	ctx, span := startSpan(ctx, "ChoreService.UpdateChore", idAttr("group_id", groupID), idAttr("chore_id", choreID))
	defer func() { finish(span, "UpdateChore", err) }()

	slog.Info("UpdateChore request received", "group_id", groupID, "chore_id", choreID, "actor_id", actorID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}
		c, err := loadChore(ctx, repos, groupID, choreID)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			c.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Weight != nil {
			c.Weight = *patch.Weight
		}
		if patch.Notes.IsSet() {
			c.Notes = trimOptional(patch.Notes.Apply(c.Notes))
		}
		if patch.IsFavorite != nil {
			c.IsFavorite = *patch.IsFavorite
		}
		if patch.Category != nil {
			c.Category = *patch.Category
		}
		c.DefaultAssigneeID = patch.DefaultAssigneeID.Apply(c.DefaultAssigneeID)
		c.EstimatedMinutes = patch.EstimatedMinutes.Apply(c.EstimatedMinutes)
		if patch.Frequency != nil {
			c.Frequency = *patch.Frequency
		}

		if err := validateChore(c); err != nil {
			return err
		}
		if assignee, ok := patch.DefaultAssigneeID.Value(); ok {
			if err := checkAssignee(ctx, repos, groupID, &assignee); err != nil {
				return err
			}
		}
		c.UpdatedAt = s.opts.clock()
		c.UpdatedBy = actorID
		if err := repos.Chores().Save(ctx, c); err != nil {
			return repoFailure("save chore", err)
		}
		chore = c
		return nil
	})
	if err != nil {
		err = repoFailure("update chore", err)
		logFailure("UpdateChore", err, "group_id", groupID, "chore_id", choreID)
		return nil, err
	}

	slog.Info("Chore updated", "group_id", groupID, "chore_id", choreID)
	return chore, nil
}

// DeleteChore soft-deletes the chore so that its logs still resolve.
// Deleting an already deleted chore succeeds without changes.
func (s *ChoreService) DeleteChore(ctx context.Context, choreID, groupID, actorID uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "ChoreService.DeleteChore", idAttr("group_id", groupID), idAttr("chore_id", choreID))
	defer func() { finish(span, "DeleteChore", err) }()

	slog.Info("DeleteChore request received", "group_id", groupID, "chore_id", choreID, "actor_id", actorID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}
		c, err := repos.Chores().Fetch(ctx, choreID)
		if err != nil {
			return repoFailure("fetch chore", err)
		}
		if c == nil || c.GroupID != groupID {
			return notFound("chore %s not found in group %s", choreID, groupID)
		}
		if c.IsDeleted() {
			return nil
		}
		c.MarkDeleted(s.opts.clock(), actorID)
		if err := repos.Chores().Save(ctx, c); err != nil {
			return repoFailure("save chore", err)
		}
		return nil
	})
	if err != nil {
		err = repoFailure("delete chore", err)
		logFailure("DeleteChore", err, "group_id", groupID, "chore_id", choreID)
		return err
	}

	slog.Info("Chore deleted", "group_id", groupID, "chore_id", choreID)
	return nil
}

// ListChores returns the group's chores. Deleted ones are included only on request.
func (s *ChoreService) ListChores(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Chore, error) {
	slog.Debug("ListChores request received", "group_id", groupID, "include_deleted", includeDeleted)

	if _, err := loadGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	chores, err := s.store.Chores().List(ctx, groupID, includeDeleted)
	if err != nil {
		return nil, repoFailure("list chores", err)
	}
	return chores, nil
}

// GetChore returns a chore of the group, deleted or not.
func (s *ChoreService) GetChore(ctx context.Context, groupID, choreID uuid.UUID) (*models.Chore, error) {
	c, err := s.store.Chores().Fetch(ctx, choreID)
	if err != nil {
		return nil, repoFailure("fetch chore", err)
	}
	if c == nil || c.GroupID != groupID {
		return nil, notFound("chore %s not found in group %s", choreID, groupID)
	}
	return c, nil
}

// loadChore fetches an active chore of the group or fails with notFound.
func loadChore(ctx context.Context, repos storage.Repositories, groupID, choreID uuid.UUID) (*models.Chore, error) {
	c, err := repos.Chores().Fetch(ctx, choreID)
	if err != nil {
		return nil, repoFailure("fetch chore", err)
	}
	if c == nil || c.GroupID != groupID || c.IsDeleted() {
		return nil, notFound("chore %s not found in group %s", choreID, groupID)
	}
	return c, nil
}
