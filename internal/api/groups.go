package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/service"
)

type memberRequest struct {
	UserID      *uuid.UUID `json:"user_id"`
	ExternalID  *string    `json:"external_id"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url"`
	Role        string     `json:"role"`
}

func (m memberRequest) draft() (service.MemberDraft, error) {
	d := service.MemberDraft{
		UserID:      m.UserID,
		ExternalID:  m.ExternalID,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
	}
	if m.Role != "" {
		role, err := parseRole(m.Role)
		if err != nil {
			return d, err
		}
		d.Role = role
	}
	return d, nil
}

func parseRole(s string) (models.Role, error) {
	role, err := models.ParseRole(s)
	if err != nil {
		return "", badRequest("%v", err)
	}
	return role, nil
}

type createGroupRequest struct {
	Name             string          `json:"name"`
	Icon             *string         `json:"icon"`
	OwnerDisplayName string          `json:"owner_display_name"`
	Members          []memberRequest `json:"members"`
}

type updateGroupRequest struct {
	Name *string              `json:"name"`
	Icon models.Patch[string] `json:"icon"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type updateMemberRequest struct {
	DisplayName *string              `json:"display_name"`
	AvatarURL   models.Patch[string] `json:"avatar_url"`
}

type inviteRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
	MaxUses   *int       `json:"max_uses"`
}

type joinRequest struct {
	Code        string  `json:"code"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	ids, err := s.groups.ListGroupsForIdentity(r.Context(), caller(r).ExternalID)
	if err != nil {
		writeError(w, err)
		return
	}
	groups := make([]groupJSON, 0, len(ids))
	for _, id := range ids {
		g, err := s.groups.GetGroup(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		groups = append(groups, toGroupJSON(g))
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := caller(r)

	ownerName := req.OwnerDisplayName
	if ownerName == "" {
		ownerName = id.Name
	}
	draft := service.GroupDraft{
		Name:             req.Name,
		Icon:             req.Icon,
		OwnerDisplayName: ownerName,
		OwnerExternalID:  optionalString(id.ExternalID),
	}
	for _, m := range req.Members {
		md, err := m.draft()
		if err != nil {
			writeError(w, err)
			return
		}
		draft.Members = append(draft.Members, md)
	}

	group, err := s.groups.CreateGroup(r.Context(), draft, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupJSON(group))
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	group, err := s.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupJSON(group))
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	group, err := s.groups.UpdateGroup(r.Context(), groupID, caller(r).UserID, service.GroupPatch{Name: req.Name, Icon: req.Icon})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupJSON(group))
}

func (s *Server) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "userID")
	if !ok {
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	group, err := s.groups.UpdateMemberRole(r.Context(), ids[0], caller(r).UserID, ids[1], role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupJSON(group))
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "userID")
	if !ok {
		return
	}
	group, err := s.groups.RemoveMember(r.Context(), ids[0], caller(r).UserID, ids[1])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupJSON(group))
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	includeDeleted, err := queryBool(r, "include_deleted")
	if err != nil {
		writeError(w, err)
		return
	}
	members, err := s.groups.ListMembers(r.Context(), groupID, includeDeleted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMembersJSON(members))
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := s.groups.AddMember(r.Context(), groupID, caller(r).UserID, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberJSON(member))
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "memberID")
	if !ok {
		return
	}
	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch := service.MemberPatch{DisplayName: req.DisplayName, AvatarURL: req.AvatarURL}
	member, err := s.groups.UpdateMember(r.Context(), ids[0], caller(r).UserID, ids[1], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberJSON(member))
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "memberID")
	if !ok {
		return
	}
	if err := s.groups.DeleteMember(r.Context(), ids[0], caller(r).UserID, ids[1]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listInvites(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	invites, err := s.groups.ListInvites(r.Context(), groupID, caller(r).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitesJSON(invites))
}

func (s *Server) generateInvite(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	opts := service.InviteOptions{ExpiresAt: req.ExpiresAt, MaxUses: req.MaxUses}
	invite, err := s.groups.GenerateInviteCode(r.Context(), groupID, caller(r).UserID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInviteJSON(invite))
}

func (s *Server) deactivateInvite(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "inviteID")
	if !ok {
		return
	}
	invite, err := s.groups.DeactivateInvite(r.Context(), ids[0], caller(r).UserID, ids[1])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInviteJSON(invite))
}

func (s *Server) deleteInvite(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "inviteID")
	if !ok {
		return
	}
	if err := s.groups.DeleteInvite(r.Context(), ids[0], caller(r).UserID, ids[1]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := caller(r)

	joiner := service.Joiner{
		UserID:      id.UserID,
		ExternalID:  optionalString(id.ExternalID),
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}
	if joiner.DisplayName == "" {
		joiner.DisplayName = id.Name
	}

	group, err := s.groups.JoinGroupWithInviteCode(r.Context(), req.Code, joiner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupJSON(group))
}
