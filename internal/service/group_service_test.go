package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

func TestCreateGroup(t *testing.T) {
	owner := uuid.New()
	bob := uuid.New()

	tests := []struct {
		name         string
		draft        GroupDraft
		wantKind     Kind
		validateFunc func(t *testing.T, f *fixture, g *models.Group)
	}{
		{
			name:  "owner becomes the only admin",
			draft: GroupDraft{Name: "  Flat 4B  ", OwnerDisplayName: "Alice"},
			validateFunc: func(t *testing.T, f *fixture, g *models.Group) {
				if g.Name != "Flat 4B" {
					t.Errorf("expected trimmed name, got %q", g.Name)
				}
				if len(g.Members) != 1 || g.Members[0].UserID != owner || g.Members[0].Role != models.RoleAdmin {
					t.Errorf("unexpected roster %+v", g.Members)
				}
				m := f.linkedMember(t, g.ID, owner)
				if m.DisplayName != "Alice" || m.Role != models.RoleAdmin {
					t.Errorf("unexpected owner member %+v", m)
				}
			},
		},
		{
			name:  "owner name defaults",
			draft: GroupDraft{Name: "Flat"},
			validateFunc: func(t *testing.T, f *fixture, g *models.Group) {
				if m := f.linkedMember(t, g.ID, owner); m.DisplayName != defaultOwnerName {
					t.Errorf("expected default owner name, got %q", m.DisplayName)
				}
			},
		},
		{
			name: "initial members get rows",
			draft: GroupDraft{
				Name: "Flat",
				Members: []MemberDraft{
					{UserID: &bob, DisplayName: "Bob", Role: models.RoleViewer},
					{DisplayName: "Grandma", Role: models.RoleAdmin},
				},
			},
			validateFunc: func(t *testing.T, f *fixture, g *models.Group) {
				if role, _ := g.RoleOf(bob); role != models.RoleViewer {
					t.Errorf("Bob role = %s, want viewer", role)
				}
				if len(g.Members) != 2 {
					t.Errorf("expected 2 roster entries, got %d", len(g.Members))
				}
				members, _ := f.groups.ListMembers(f.ctx, g.ID, false)
				if len(members) != 3 {
					t.Fatalf("expected 3 members, got %d", len(members))
				}
				if members[2].Role != models.RoleEditor {
					t.Errorf("unlinked member role = %s, want editor", members[2].Role)
				}
			},
		},
		{
			name:     "blank name",
			draft:    GroupDraft{Name: "   "},
			wantKind: KindValidation,
		},
		{
			name: "duplicate user",
			draft: GroupDraft{Name: "Flat", Members: []MemberDraft{
				{UserID: &bob, DisplayName: "Bob"},
				{UserID: &bob, DisplayName: "Bob again"},
			}},
			wantKind: KindValidation,
		},
		{
			name:     "owner listed again",
			draft:    GroupDraft{Name: "Flat", Members: []MemberDraft{{UserID: &owner, DisplayName: "Me"}}},
			wantKind: KindValidation,
		},
		{
			name:     "blank member name",
			draft:    GroupDraft{Name: "Flat", Members: []MemberDraft{{DisplayName: " "}}},
			wantKind: KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			g, err := f.groups.CreateGroup(f.ctx, tt.draft, owner)
			if tt.wantKind != "" {
				wantKind(t, err, tt.wantKind)
				return
			}
			if err != nil {
				t.Fatalf("CreateGroup failed: %v", err)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, f, g)
			}
		})
	}
}

func TestRemoveLastAdmin(t *testing.T) {
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()
	g, _ := f.newGroup(t, a)

	_, err := f.groups.RemoveMember(f.ctx, g.ID, a, a)
	wantKind(t, err, KindValidation)
	if !strings.Contains(err.Error(), "at least one admin") {
		t.Errorf("unexpected reason: %v", err)
	}

	unchanged, _ := f.groups.GetGroup(f.ctx, g.ID)
	if len(unchanged.Members) != 1 {
		t.Fatalf("group changed after failed removal: %+v", unchanged.Members)
	}

	f.addUser(t, g.ID, a, b, "Bob", models.RoleAdmin)

	after, err := f.groups.RemoveMember(f.ctx, g.ID, a, a)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if len(after.Members) != 1 || after.Members[0].UserID != b || after.Members[0].Role != models.RoleAdmin {
		t.Errorf("expected [B as admin], got %+v", after.Members)
	}

	members, _ := f.groups.ListMembers(f.ctx, g.ID, true)
	for _, m := range members {
		if m.IsLinkedTo(a) && !m.IsDeleted() {
			t.Error("removed user's member row was not soft-deleted")
		}
	}
}

func TestUpdateMemberRole(t *testing.T) {
	f := newFixture(t)
	admin, bob, viewer := uuid.New(), uuid.New(), uuid.New()
	g, _ := f.newGroup(t, admin)
	f.addUser(t, g.ID, admin, bob, "Bob", models.RoleEditor)
	f.addUser(t, g.ID, admin, viewer, "Vic", models.RoleViewer)

	_, err := f.groups.UpdateMemberRole(f.ctx, g.ID, admin, admin, models.RoleEditor)
	wantKind(t, err, KindValidation)

	_, err = f.groups.UpdateMemberRole(f.ctx, g.ID, bob, viewer, models.RoleAdmin)
	wantKind(t, err, KindUnauthorized)

	_, err = f.groups.UpdateMemberRole(f.ctx, g.ID, admin, uuid.New(), models.RoleAdmin)
	wantKind(t, err, KindNotFound)

	_, err = f.groups.UpdateMemberRole(f.ctx, g.ID, admin, bob, models.Role("owner"))
	wantKind(t, err, KindValidation)

	updated, err := f.groups.UpdateMemberRole(f.ctx, g.ID, admin, bob, models.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateMemberRole failed: %v", err)
	}
	if updated.AdminCount() != 2 {
		t.Errorf("AdminCount = %d, want 2", updated.AdminCount())
	}
	if m := f.linkedMember(t, g.ID, bob); m.Role != models.RoleAdmin {
		t.Errorf("member row role = %s, want admin", m.Role)
	}

	// With two admins the first may step down.
	if _, err := f.groups.UpdateMemberRole(f.ctx, g.ID, admin, admin, models.RoleEditor); err != nil {
		t.Errorf("demoting one of two admins failed: %v", err)
	}
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	admin, editor := uuid.New(), uuid.New()
	g, _ := f.newGroup(t, admin)
	f.addUser(t, g.ID, admin, editor, "Eve", models.RoleEditor)

	_, err := f.groups.AddMember(f.ctx, g.ID, editor, MemberDraft{DisplayName: "Kid"})
	wantKind(t, err, KindUnauthorized)

	_, err = f.groups.AddMember(f.ctx, g.ID, admin, MemberDraft{UserID: &editor, DisplayName: "Eve again"})
	wantKind(t, err, KindValidation)

	_, err = f.groups.AddMember(f.ctx, uuid.New(), admin, MemberDraft{DisplayName: "Kid"})
	wantKind(t, err, KindNotFound)

	kid, err := f.groups.AddMember(f.ctx, g.ID, admin, MemberDraft{DisplayName: "Kid", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if kid.Role != models.RoleEditor {
		t.Errorf("unlinked member role = %s, want editor", kid.Role)
	}

	group, _ := f.groups.GetGroup(f.ctx, g.ID)
	if len(group.Members) != 2 {
		t.Errorf("unlinked member changed the roster: %+v", group.Members)
	}
}

func TestRemoveMemberPermissions(t *testing.T) {
	f := newFixture(t)
	admin, bob, carol := uuid.New(), uuid.New(), uuid.New()
	g, _ := f.newGroup(t, admin)
	f.addUser(t, g.ID, admin, bob, "Bob", models.RoleEditor)
	f.addUser(t, g.ID, admin, carol, "Carol", models.RoleEditor)

	_, err := f.groups.RemoveMember(f.ctx, g.ID, bob, carol)
	wantKind(t, err, KindUnauthorized)

	if _, err := f.groups.RemoveMember(f.ctx, g.ID, bob, bob); err != nil {
		t.Fatalf("self-removal failed: %v", err)
	}
	all, _ := f.groups.ListMembers(f.ctx, g.ID, true)
	for _, m := range all {
		if !m.IsLinkedTo(bob) {
			continue
		}
		if m.DeletedAt == nil || !m.DeletedAt.Equal(testNow) || m.DeletedBy == nil || *m.DeletedBy != bob {
			t.Errorf("bob's member row deleted at %v by %v, want %v by bob", m.DeletedAt, m.DeletedBy, testNow)
		}
	}

	// Bob is no longer on the roster and cannot act in the group.
	_, err = f.groups.RemoveMember(f.ctx, g.ID, bob, bob)
	wantKind(t, err, KindUnauthorized)

	if _, err := f.groups.RemoveMember(f.ctx, g.ID, admin, carol); err != nil {
		t.Fatalf("admin removal failed: %v", err)
	}

	_, err = f.groups.RemoveMember(f.ctx, g.ID, admin, carol)
	wantKind(t, err, KindNotFound)
}

func TestUpdateAndDeleteMember(t *testing.T) {
	f := newFixture(t)
	admin, bob := uuid.New(), uuid.New()
	g, _ := f.newGroup(t, admin)
	bobMember := f.addUser(t, g.ID, admin, bob, "Bob", models.RoleEditor)

	kid, err := f.groups.AddMember(f.ctx, g.ID, admin, MemberDraft{DisplayName: "Kid"})
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	// Bob may edit himself but not others.
	updated, err := f.groups.UpdateMember(f.ctx, g.ID, bob, bobMember.ID, MemberPatch{
		DisplayName: ptr(" Robert "),
		AvatarURL:   models.Set("https://example.com/bob.png"),
	})
	if err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}
	if updated.DisplayName != "Robert" || updated.AvatarURL == nil {
		t.Errorf("unexpected member %+v", updated)
	}

	_, err = f.groups.UpdateMember(f.ctx, g.ID, bob, kid.ID, MemberPatch{DisplayName: ptr("Junior")})
	wantKind(t, err, KindUnauthorized)

	cleared, err := f.groups.UpdateMember(f.ctx, g.ID, admin, bobMember.ID, MemberPatch{AvatarURL: models.Clear[string]()})
	if err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}
	if cleared.AvatarURL != nil || cleared.DisplayName != "Robert" {
		t.Errorf("unexpected member after clearing avatar %+v", cleared)
	}

	err = f.groups.DeleteMember(f.ctx, g.ID, admin, bobMember.ID)
	wantKind(t, err, KindValidation)

	err = f.groups.DeleteMember(f.ctx, g.ID, bob, kid.ID)
	wantKind(t, err, KindUnauthorized)

	if err := f.groups.DeleteMember(f.ctx, g.ID, admin, kid.ID); err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}

	active, _ := f.groups.ListMembers(f.ctx, g.ID, false)
	all, _ := f.groups.ListMembers(f.ctx, g.ID, true)
	if len(active) != 2 || len(all) != 3 {
		t.Errorf("expected 2 active of 3 members, got %d of %d", len(active), len(all))
	}
	for _, m := range all {
		if m.ID == kid.ID && (m.DeletedAt == nil || !m.DeletedAt.Equal(testNow)) {
			t.Errorf("kid DeletedAt = %v, want %v", m.DeletedAt, testNow)
		}
	}

	err = f.groups.DeleteMember(f.ctx, g.ID, admin, kid.ID)
	wantKind(t, err, KindNotFound)
}

func TestUpdateGroup(t *testing.T) {
	f := newFixture(t)
	admin, viewer := uuid.New(), uuid.New()
	g, _ := f.newGroup(t, admin)
	f.addUser(t, g.ID, admin, viewer, "Vic", models.RoleViewer)

	updated, err := f.groups.UpdateGroup(f.ctx, g.ID, admin, GroupPatch{Icon: models.Set("🏠")})
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if updated.Icon == nil || *updated.Icon != "🏠" || updated.Name != "Flat 4B" {
		t.Errorf("unexpected group %+v", updated)
	}

	_, err = f.groups.UpdateGroup(f.ctx, g.ID, admin, GroupPatch{Name: ptr("")})
	wantKind(t, err, KindValidation)

	_, err = f.groups.UpdateGroup(f.ctx, g.ID, viewer, GroupPatch{Name: ptr("Mine")})
	wantKind(t, err, KindUnauthorized)

	role, err := f.groups.MemberRole(f.ctx, g.ID, viewer)
	if err != nil || role != models.RoleViewer {
		t.Errorf("MemberRole = %s, %v", role, err)
	}
	_, err = f.groups.MemberRole(f.ctx, g.ID, uuid.New())
	wantKind(t, err, KindUnauthorized)
}

func TestListGroupsForIdentity(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	subject := "oidc|alice"

	first, err := f.groups.CreateGroup(f.ctx, GroupDraft{Name: "Home", OwnerExternalID: &subject}, owner)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := f.groups.CreateGroup(f.ctx, GroupDraft{Name: "Cabin"}, owner); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	ids, err := f.groups.ListGroupsForIdentity(f.ctx, subject)
	if err != nil {
		t.Fatalf("ListGroupsForIdentity failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != first.ID {
		t.Errorf("expected only %s, got %v", first.ID, ids)
	}

	_, err = f.groups.ListGroupsForIdentity(f.ctx, " ")
	wantKind(t, err, KindValidation)
}
