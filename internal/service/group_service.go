package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

// adminInvariant is the validation reason for any change that would leave a
// group without an admin.
const adminInvariant = "group must have at least one admin"

// defaultOwnerName is used when a group is created without an owner display name.
const defaultOwnerName = "Owner"

// GroupDraft holds the input for CreateGroup.
type GroupDraft struct {
	Name string
	Icon *string

	// OwnerDisplayName is how the creator appears in chore logs.
	OwnerDisplayName string

	// OwnerExternalID is the creator's identity provider subject, if known.
	OwnerExternalID *string

	// Members are created alongside the owner. Drafts with a UserID also join the roster.
	Members []MemberDraft
}

// MemberDraft describes a member to add. UserID is nil for people who never sign in.
type MemberDraft struct {
	UserID      *uuid.UUID
	ExternalID  *string
	DisplayName string
	AvatarURL   *string

	// Role defaults to editor. Unlinked members are always editors.
	Role models.Role
}

// GroupPatch lists the group fields to change. Nil and unset fields are left alone.
type GroupPatch struct {
	Name *string
	Icon models.Patch[string]
}

// MemberPatch lists the member fields to change.
type MemberPatch struct {
	DisplayName *string
	AvatarURL   models.Patch[string]
}

// GroupService owns groups, their rosters and performers.
type GroupService struct {
	store storage.Store
	opts  options
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, opts ...Option) *GroupService {
	return &GroupService{store: store, opts: buildOptions(opts)}
}

// newMember validates a draft and builds the Member it describes.
func newMember(groupID uuid.UUID, d MemberDraft, actorID uuid.UUID, now time.Time) (*models.Member, error) {
	name := strings.TrimSpace(d.DisplayName)
	if name == "" {
		return nil, invalid("member display name must not be empty")
	}

	role := d.Role
	if role == "" || d.UserID == nil {
		role = models.RoleEditor
	}
	if !role.Valid() {
		return nil, invalid("unknown role %q", d.Role)
	}

	return &models.Member{
		ID:          uuid.New(),
		GroupID:     groupID,
		UserID:      d.UserID,
		ExternalID:  trimOptional(d.ExternalID),
		DisplayName: name,
		AvatarURL:   trimOptional(d.AvatarURL),
		Role:        role,
		CreatedAt:   now,
		CreatedBy:   actorID,
		UpdatedAt:   now,
		UpdatedBy:   actorID,
	}, nil
}

// CreateGroup creates a group with ownerID as its first admin.
func (s *GroupService) CreateGroup(ctx context.Context, draft GroupDraft, ownerID uuid.UUID) (group *models.Group, err error) {
	ctx, span := startSpan(ctx, "GroupService.CreateGroup", idAttr("owner_id", ownerID))
	defer func() { finish(span, "CreateGroup", err) }()

	slog.Info("CreateGroup request received",
		"name", draft.Name,
		"owner_id", ownerID,
		"members_count", len(draft.Members),
	)

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		err = invalid("group name must not be empty")
		logFailure("CreateGroup", err)
		return nil, err
	}

	now := s.opts.clock()
	group = &models.Group{
		ID:        uuid.New(),
		Name:      name,
		Icon:      trimOptional(draft.Icon),
		Members:   []models.Membership{{UserID: ownerID, Role: models.RoleAdmin, JoinedAt: now}},
		CreatedAt: now,
		CreatedBy: ownerID,
		UpdatedAt: now,
		UpdatedBy: ownerID,
	}

	ownerName := strings.TrimSpace(draft.OwnerDisplayName)
	if ownerName == "" {
		ownerName = defaultOwnerName
	}
	owner := ownerID
	members := []*models.Member{{
		ID:          uuid.New(),
		GroupID:     group.ID,
		UserID:      &owner,
		ExternalID:  trimOptional(draft.OwnerExternalID),
		DisplayName: ownerName,
		Role:        models.RoleAdmin,
		CreatedAt:   now,
		CreatedBy:   ownerID,
		UpdatedAt:   now,
		UpdatedBy:   ownerID,
	}}

	seen := map[uuid.UUID]bool{ownerID: true}
	for _, d := range draft.Members {
		m, err := newMember(group.ID, d, ownerID, now)
		if err != nil {
			logFailure("CreateGroup", err)
			return nil, err
		}
		if m.UserID != nil {
			if seen[*m.UserID] {
				err = invalid("user %s is listed more than once", *m.UserID)
				logFailure("CreateGroup", err)
				return nil, err
			}
			seen[*m.UserID] = true
			group.Members = append(group.Members, models.Membership{UserID: *m.UserID, Role: m.Role, JoinedAt: now})
		}
		members = append(members, m)
	}

	if group.AdminCount() == 0 {
		err = invalid(adminInvariant)
		logFailure("CreateGroup", err)
		return nil, err
	}

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		if err := repos.Groups().Save(ctx, group); err != nil {
			return repoFailure("save group", err)
		}
		for _, m := range members {
			if err := repos.Members().Save(ctx, m); err != nil {
				return repoFailure("save member", err)
			}
		}
		return nil
	})
	if err != nil {
		err = repoFailure("create group", err)
		logFailure("CreateGroup", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "members_count", len(members))
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	slog.Debug("GetGroup request received", "group_id", groupID)
	return loadGroup(ctx, s.store, groupID)
}

// MemberRole returns userID's role in the group, failing with unauthorized
// when the user is not on the roster.
func (s *GroupService) MemberRole(ctx context.Context, groupID, userID uuid.UUID) (models.Role, error) {
	group, err := loadGroup(ctx, s.store, groupID)
	if err != nil {
		return "", err
	}
	return requireMember(group, userID)
}

// UpdateGroup changes the group's name or icon. Admin only.
func (s *GroupService) UpdateGroup(ctx context.Context, groupID, actorID uuid.UUID, patch GroupPatch) (group *models.Group, err error) {
	ctx, span := startSpan(ctx, "GroupService.UpdateGroup", idAttr("group_id", groupID))
	defer func() { finish(span, "UpdateGroup", err) }()

	slog.Info("UpdateGroup request received", "group_id", groupID, "actor_id", actorID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		g, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(g, actorID); err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return invalid("group name must not be empty")
			}
			g.Name = name
		}
		if patch.Icon.IsSet() {
			g.Icon = trimOptional(patch.Icon.Apply(g.Icon))
		}
		g.UpdatedAt = s.opts.clock()
		g.UpdatedBy = actorID

		if err := repos.Groups().Save(ctx, g); err != nil {
			return repoFailure("save group", err)
		}
		group = g
		return nil
	})
	if err != nil {
		err = repoFailure("update group", err)
		logFailure("UpdateGroup", err, "group_id", groupID)
		return nil, err
	}

	slog.Info("Group updated", "group_id", groupID)
	return group, nil
}

// AddMember adds a performer to the group. Admin only. A draft with a UserID
// also adds that user to the roster.
func (s *GroupService) AddMember(ctx context.Context, groupID, actorID uuid.UUID, draft MemberDraft) (member *models.Member, err error) {
	ctx, span := startSpan(ctx, "GroupService.AddMember", idAttr("group_id", groupID))
	defer func() { finish(span, "AddMember", err) }()

	slog.Info("AddMember request received", "group_id", groupID, "actor_id", actorID, "linked", draft.UserID != nil)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(group, actorID); err != nil {
			return err
		}

		now := s.opts.clock()
		m, err := newMember(groupID, draft, actorID, now)
		if err != nil {
			return err
		}

		if m.UserID != nil {
			if group.HasMember(*m.UserID) {
				return invalid("user %s is already a member of the group", *m.UserID)
			}
			group.Members = append(group.Members, models.Membership{UserID: *m.UserID, Role: m.Role, JoinedAt: now})
			if group.AdminCount() == 0 {
				return invalid(adminInvariant)
			}
			group.UpdatedAt = now
			group.UpdatedBy = actorID
			if err := repos.Groups().Save(ctx, group); err != nil {
				return repoFailure("save group", err)
			}
		}

		if err := repos.Members().Save(ctx, m); err != nil {
			return repoFailure("save member", err)
		}
		member = m
		return nil
	})
	if err != nil {
		err = repoFailure("add member", err)
		logFailure("AddMember", err, "group_id", groupID)
		return nil, err
	}

	slog.Info("Member added", "group_id", groupID, "member_id", member.ID)
	return member, nil
}

// UpdateMemberRole changes a user's role. Admin only. Demoting the last admin fails.
func (s *GroupService) UpdateMemberRole(ctx context.Context, groupID, actorID, userID uuid.UUID, role models.Role) (group *models.Group, err error) {
	ctx, span := startSpan(ctx, "GroupService.UpdateMemberRole", idAttr("group_id", groupID), idAttr("user_id", userID))
	defer func() { finish(span, "UpdateMemberRole", err) }()

	slog.Info("UpdateMemberRole request received",
		"group_id", groupID,
		"actor_id", actorID,
		"user_id", userID,
		"role", role,
	)

	if !role.Valid() {
		err = invalid("unknown role %q", role)
		logFailure("UpdateMemberRole", err, "group_id", groupID)
		return nil, err
	}

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		g, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(g, actorID); err != nil {
			return err
		}

		idx := rosterIndex(g, userID)
		if idx < 0 {
			return notFound("user %s is not a member of group %s", userID, groupID)
		}
		g.Members[idx].Role = role
		if g.AdminCount() == 0 {
			return invalid(adminInvariant)
		}

		now := s.opts.clock()
		g.UpdatedAt = now
		g.UpdatedBy = actorID
		if err := repos.Groups().Save(ctx, g); err != nil {
			return repoFailure("save group", err)
		}

		linked, err := linkedMembers(ctx, repos, groupID, userID)
		if err != nil {
			return err
		}
		for _, m := range linked {
			m.Role = role
			m.UpdatedAt = now
			m.UpdatedBy = actorID
			if err := repos.Members().Save(ctx, m); err != nil {
				return repoFailure("save member", err)
			}
		}

		group = g
		return nil
	})
	if err != nil {
		err = repoFailure("update member role", err)
		logFailure("UpdateMemberRole", err, "group_id", groupID, "user_id", userID)
		return nil, err
	}

	slog.Info("Member role updated", "group_id", groupID, "user_id", userID, "role", role)
	return group, nil
}

// RemoveMember takes userID off the roster and soft-deletes their performer.
// Admins may remove anyone; any member may remove themself. Removing the last
// admin fails and leaves the group unchanged.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, actorID, userID uuid.UUID) (group *models.Group, err error) {
	ctx, span := startSpan(ctx, "GroupService.RemoveMember", idAttr("group_id", groupID), idAttr("user_id", userID))
	defer func() { finish(span, "RemoveMember", err) }()

	slog.Info("RemoveMember request received", "group_id", groupID, "actor_id", actorID, "user_id", userID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		g, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if actorID == userID {
			if _, err := requireMember(g, actorID); err != nil {
				return err
			}
		} else if err := requireAdmin(g, actorID); err != nil {
			return err
		}

		idx := rosterIndex(g, userID)
		if idx < 0 {
			return notFound("user %s is not a member of group %s", userID, groupID)
		}
		removed := g.Members[idx]
		g.Members = append(g.Members[:idx], g.Members[idx+1:]...)
		if removed.Role == models.RoleAdmin && g.AdminCount() == 0 {
			return invalid(adminInvariant)
		}

		now := s.opts.clock()
		g.UpdatedAt = now
		g.UpdatedBy = actorID
		if err := repos.Groups().Save(ctx, g); err != nil {
			return repoFailure("save group", err)
		}

		linked, err := linkedMembers(ctx, repos, groupID, userID)
		if err != nil {
			return err
		}
		for _, m := range linked {
			if err := repos.Members().SoftDelete(ctx, m.ID, groupID, actorID, now); err != nil {
				return repoFailure("delete member", err)
			}
		}

		group = g
		return nil
	})
	if err != nil {
		err = repoFailure("remove member", err)
		logFailure("RemoveMember", err, "group_id", groupID, "user_id", userID)
		return nil, err
	}

	slog.Info("Member removed", "group_id", groupID, "user_id", userID)
	return group, nil
}

// UpdateMember changes a performer's display name or avatar. Allowed for admins
// and for the user linked to the member.
func (s *GroupService) UpdateMember(ctx context.Context, groupID, actorID, memberID uuid.UUID, patch MemberPatch) (member *models.Member, err error) {
	ctx, span := startSpan(ctx, "GroupService.UpdateMember", idAttr("group_id", groupID), idAttr("member_id", memberID))
	defer func() { finish(span, "UpdateMember", err) }()

	slog.Info("UpdateMember request received", "group_id", groupID, "actor_id", actorID, "member_id", memberID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		g, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		role, err := requireMember(g, actorID)
		if err != nil {
			return err
		}

		m, found, err := activeMember(ctx, repos, groupID, memberID)
		if err != nil {
			return err
		}
		if !found {
			return notFound("member %s not found in group %s", memberID, groupID)
		}
		if role != models.RoleAdmin && !m.IsLinkedTo(actorID) {
			return unauthorized("only admins can edit other members")
		}

		if patch.DisplayName != nil {
			name := strings.TrimSpace(*patch.DisplayName)
			if name == "" {
				return invalid("member display name must not be empty")
			}
			m.DisplayName = name
		}
		if patch.AvatarURL.IsSet() {
			m.AvatarURL = trimOptional(patch.AvatarURL.Apply(m.AvatarURL))
		}
		m.UpdatedAt = s.opts.clock()
		m.UpdatedBy = actorID

		if err := repos.Members().Save(ctx, m); err != nil {
			return repoFailure("save member", err)
		}
		member = m
		return nil
	})
	if err != nil {
		err = repoFailure("update member", err)
		logFailure("UpdateMember", err, "group_id", groupID, "member_id", memberID)
		return nil, err
	}

	slog.Info("Member updated", "group_id", groupID, "member_id", memberID)
	return member, nil
}

// DeleteMember soft-deletes a performer who is not linked to a roster user.
// Admin only. Linked members leave through RemoveMember.
func (s *GroupService) DeleteMember(ctx context.Context, groupID, actorID, memberID uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "GroupService.DeleteMember", idAttr("group_id", groupID), idAttr("member_id", memberID))
	defer func() { finish(span, "DeleteMember", err) }()

	slog.Info("DeleteMember request received", "group_id", groupID, "actor_id", actorID, "member_id", memberID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		g, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(g, actorID); err != nil {
			return err
		}

		m, found, err := activeMember(ctx, repos, groupID, memberID)
		if err != nil {
			return err
		}
		if !found {
			return notFound("member %s not found in group %s", memberID, groupID)
		}
		if m.UserID != nil && g.HasMember(*m.UserID) {
			return invalid("member is linked to user %s; remove the user from the group instead", *m.UserID)
		}

		if err := repos.Members().SoftDelete(ctx, memberID, groupID, actorID, s.opts.clock()); err != nil {
			return repoFailure("delete member", err)
		}
		return nil
	})
	if err != nil {
		err = repoFailure("delete member", err)
		logFailure("DeleteMember", err, "group_id", groupID, "member_id", memberID)
		return err
	}

	slog.Info("Member deleted", "group_id", groupID, "member_id", memberID)
	return nil
}

// ListMembers returns the group's performers. Deleted ones are included only on request.
func (s *GroupService) ListMembers(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Member, error) {
	slog.Debug("ListMembers request received", "group_id", groupID, "include_deleted", includeDeleted)

	if _, err := loadGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	members, err := s.store.Members().List(ctx, groupID, includeDeleted)
	if err != nil {
		return nil, repoFailure("list members", err)
	}
	return members, nil
}

// ListGroupsForIdentity returns the groups in which the external identity has
// an active member.
func (s *GroupService) ListGroupsForIdentity(ctx context.Context, externalID string) ([]uuid.UUID, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, invalid("external id must not be empty")
	}
	ids, err := s.store.Members().ListGroupsForIdentity(ctx, externalID)
	if err != nil {
		return nil, repoFailure("list groups for identity", err)
	}
	return ids, nil
}

func rosterIndex(g *models.Group, userID uuid.UUID) int {
	for i, m := range g.Members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

// linkedMembers returns the group's active performers linked to userID.
func linkedMembers(ctx context.Context, repos storage.Repositories, groupID, userID uuid.UUID) ([]*models.Member, error) {
	all, err := repos.Members().List(ctx, groupID, false)
	if err != nil {
		return nil, repoFailure("list members", err)
	}
	var linked []*models.Member
	for _, m := range all {
		if m.IsLinkedTo(userID) {
			linked = append(linked, m)
		}
	}
	return linked, nil
}
