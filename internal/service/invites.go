package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/metrics"
	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

// maxInviteAttempts bounds code generation when codes collide.
const maxInviteAttempts = 10

// InviteOptions limits an invite. Nil fields mean no limit.
type InviteOptions struct {
	ExpiresAt *time.Time
	MaxUses   *int
}

// Joiner is the signed-in user redeeming an invite code.
type Joiner struct {
	UserID      uuid.UUID
	ExternalID  *string
	DisplayName string
	AvatarURL   *string
}

// GenerateInviteCode creates a fresh invite for the group. Admin only.
func (s *GroupService) GenerateInviteCode(ctx context.Context, groupID, actorID uuid.UUID, opts InviteOptions) (invite *models.GroupInvite, err error) {
	ctx, span := startSpan(ctx, "GroupService.GenerateInviteCode", idAttr("group_id", groupID))
	defer func() { finish(span, "GenerateInviteCode", err) }()

	slog.Info("GenerateInviteCode request received", "group_id", groupID, "actor_id", actorID)

	now := s.opts.clock()
	if opts.MaxUses != nil && *opts.MaxUses < 1 {
		err = invalid("max uses must be at least 1")
		logFailure("GenerateInviteCode", err, "group_id", groupID)
		return nil, err
	}
	if opts.ExpiresAt != nil && !opts.ExpiresAt.After(now) {
		err = invalid("invite expiry must be in the future")
		logFailure("GenerateInviteCode", err, "group_id", groupID)
		return nil, err
	}

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(group, actorID); err != nil {
			return err
		}

		code, err := s.uniqueCode(ctx, repos)
		if err != nil {
			return err
		}

		inv := &models.GroupInvite{
			ID:        uuid.New(),
			GroupID:   groupID,
			Code:      code,
			MaxUses:   opts.MaxUses,
			IsActive:  true,
			CreatedAt: now,
			CreatedBy: actorID,
		}
		if opts.ExpiresAt != nil {
			exp := opts.ExpiresAt.UTC()
			inv.ExpiresAt = &exp
		}
		if err := repos.Invites().Save(ctx, inv); err != nil {
			return repoFailure("save invite", err)
		}
		invite = inv
		return nil
	})
	if err != nil {
		err = repoFailure("generate invite code", err)
		logFailure("GenerateInviteCode", err, "group_id", groupID)
		return nil, err
	}

	slog.Info("Invite code generated", "group_id", groupID, "invite_id", invite.ID)
	return invite, nil
}

// uniqueCode draws codes until one is unused, giving up after maxInviteAttempts.
// A failing generator counts as a used attempt.
func (s *GroupService) uniqueCode(ctx context.Context, repos storage.Repositories) (string, error) {
	for attempt := 1; attempt <= maxInviteAttempts; attempt++ {
		code, err := s.opts.newCode()
		if err != nil {
			slog.Warn("Invite code generation failed", "attempt", attempt, "error", err)
			continue
		}
		existing, err := repos.Invites().FetchByCode(ctx, code)
		if err != nil {
			return "", repoFailure("fetch invite", err)
		}
		if existing == nil {
			return code, nil
		}
		slog.Debug("Invite code collision", "attempt", attempt)
	}
	return "", invalid("could not generate a unique invite code after %d attempts", maxInviteAttempts)
}

// JoinGroupWithInviteCode redeems an invite: the joiner becomes an editor on the
// roster, gets a linked member and the invite's use count goes up, all in one
// unit of work.
func (s *GroupService) JoinGroupWithInviteCode(ctx context.Context, code string, joiner Joiner) (group *models.Group, err error) {
	ctx, span := startSpan(ctx, "GroupService.JoinGroupWithInviteCode", idAttr("user_id", joiner.UserID))
	defer func() { finish(span, "JoinGroupWithInviteCode", err) }()

	slog.Info("JoinGroupWithInviteCode request received", "user_id", joiner.UserID)

	code = models.NormalizeInviteCode(code)
	if !models.IsWellFormedInviteCode(code) {
		err = invalid("invite code is malformed")
		logFailure("JoinGroupWithInviteCode", err)
		return nil, err
	}

	name := strings.TrimSpace(joiner.DisplayName)
	if name == "" {
		err = invalid("member display name must not be empty")
		logFailure("JoinGroupWithInviteCode", err)
		return nil, err
	}

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		inv, err := repos.Invites().FetchByCode(ctx, code)
		if err != nil {
			return repoFailure("fetch invite", err)
		}
		now := s.opts.clock()
		if inv == nil || !inv.IsValid(now) {
			return invalid("invite code is invalid or expired")
		}

		g, err := loadGroup(ctx, repos, inv.GroupID)
		if err != nil {
			return err
		}
		if g.HasMember(joiner.UserID) {
			return invalid("user %s is already a member of the group", joiner.UserID)
		}

		userID := joiner.UserID
		member := &models.Member{
			ID:          uuid.New(),
			GroupID:     g.ID,
			UserID:      &userID,
			ExternalID:  trimOptional(joiner.ExternalID),
			DisplayName: name,
			AvatarURL:   trimOptional(joiner.AvatarURL),
			Role:        models.RoleEditor,
			CreatedAt:   now,
			CreatedBy:   userID,
			UpdatedAt:   now,
			UpdatedBy:   userID,
		}
		if err := repos.Members().Save(ctx, member); err != nil {
			return repoFailure("save member", err)
		}

		g.Members = append(g.Members, models.Membership{UserID: userID, Role: models.RoleEditor, JoinedAt: now})
		g.UpdatedAt = now
		g.UpdatedBy = userID
		if err := repos.Groups().Save(ctx, g); err != nil {
			return repoFailure("save group", err)
		}

		inv.CurrentUses++
		if err := repos.Invites().Save(ctx, inv); err != nil {
			return repoFailure("save invite", err)
		}

		group = g
		return nil
	})
	if err != nil {
		err = repoFailure("join group", err)
		logFailure("JoinGroupWithInviteCode", err, "user_id", joiner.UserID)
		return nil, err
	}

	metrics.InviteJoins.Inc()
	slog.Info("User joined group", "group_id", group.ID, "user_id", joiner.UserID)
	return group, nil
}

// ListInvites returns the group's invites, newest first. Any member may list them.
func (s *GroupService) ListInvites(ctx context.Context, groupID, actorID uuid.UUID) ([]*models.GroupInvite, error) {
	slog.Debug("ListInvites request received", "group_id", groupID, "actor_id", actorID)

	group, err := loadGroup(ctx, s.store, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(group, actorID); err != nil {
		return nil, err
	}
	invites, err := s.store.Invites().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, repoFailure("list invites", err)
	}
	return invites, nil
}

// DeactivateInvite stops an invite from being redeemed. Admin only.
func (s *GroupService) DeactivateInvite(ctx context.Context, groupID, actorID, inviteID uuid.UUID) (invite *models.GroupInvite, err error) {
	ctx, span := startSpan(ctx, "GroupService.DeactivateInvite", idAttr("group_id", groupID), idAttr("invite_id", inviteID))
	defer func() { finish(span, "DeactivateInvite", err) }()

	slog.Info("DeactivateInvite request received", "group_id", groupID, "actor_id", actorID, "invite_id", inviteID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		inv, err := s.adminInvite(ctx, repos, groupID, actorID, inviteID)
		if err != nil {
			return err
		}
		inv.IsActive = false
		if err := repos.Invites().Save(ctx, inv); err != nil {
			return repoFailure("save invite", err)
		}
		invite = inv
		return nil
	})
	if err != nil {
		err = repoFailure("deactivate invite", err)
		logFailure("DeactivateInvite", err, "group_id", groupID, "invite_id", inviteID)
		return nil, err
	}

	slog.Info("Invite deactivated", "group_id", groupID, "invite_id", inviteID)
	return invite, nil
}

// DeleteInvite removes an invite permanently. Admin only.
func (s *GroupService) DeleteInvite(ctx context.Context, groupID, actorID, inviteID uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "GroupService.DeleteInvite", idAttr("group_id", groupID), idAttr("invite_id", inviteID))
	defer func() { finish(span, "DeleteInvite", err) }()

	slog.Info("DeleteInvite request received", "group_id", groupID, "actor_id", actorID, "invite_id", inviteID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		if _, err := s.adminInvite(ctx, repos, groupID, actorID, inviteID); err != nil {
			return err
		}
		if err := repos.Invites().Delete(ctx, inviteID); err != nil {
			return repoFailure("delete invite", err)
		}
		return nil
	})
	if err != nil {
		err = repoFailure("delete invite", err)
		logFailure("DeleteInvite", err, "group_id", groupID, "invite_id", inviteID)
		return err
	}

	slog.Info("Invite deleted", "group_id", groupID, "invite_id", inviteID)
	return nil
}

// adminInvite checks the actor is an admin and returns the group's invite.
func (s *GroupService) adminInvite(ctx context.Context, repos storage.Repositories, groupID, actorID, inviteID uuid.UUID) (*models.GroupInvite, error) {
	group, err := loadGroup(ctx, repos, groupID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(group, actorID); err != nil {
		return nil, err
	}
	invites, err := repos.Invites().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, repoFailure("list invites", err)
	}
	for _, inv := range invites {
		if inv.ID == inviteID {
			return inv, nil
		}
	}
	return nil, notFound("invite %s not found in group %s", inviteID, groupID)
}
