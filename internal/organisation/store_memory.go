package organisation

import (
	"context"
	"sort"
	"strings"
	"sync"

	dErrors "beacon/pkg/domain-errors"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	orgs        map[string]Organisation
	members     map[string]map[string]Member // orgID -> userID -> member
	memberships map[string]string            // userID -> orgID
	invitations map[string]Invitation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:        make(map[string]Organisation),
		members:     make(map[string]map[string]Member),
		memberships: make(map[string]string),
		invitations: make(map[string]Invitation),
	}
}

func (s *MemoryStore) CreateOrganisation(_ context.Context, org Organisation, owner Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgs[org.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "organisation already exists")
	}
	s.orgs[org.ID] = org
	s.members[org.ID] = map[string]Member{owner.UserID: owner}
	s.memberships[owner.UserID] = org.ID
	return nil
}

func (s *MemoryStore) GetOrganisation(_ context.Context, orgID string) (Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return Organisation{}, ErrNotFound
	}
	return org, nil
}

func (s *MemoryStore) UpdateOrganisation(_ context.Context, org Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[org.ID]; !ok {
		return ErrNotFound
	}
	s.orgs[org.ID] = org
	return nil
}

func (s *MemoryStore) DeleteOrganisation(_ context.Context, orgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[orgID]; !ok {
		return ErrNotFound
	}
	delete(s.orgs, orgID)
	for userID := range s.members[orgID] {
		delete(s.memberships, userID)
	}
	delete(s.members, orgID)
	for id, inv := range s.invitations {
		if inv.OrgID == orgID {
			delete(s.invitations, id)
		}
	}
	return nil
}

func (s *MemoryStore) ListMembers(_ context.Context, orgID string) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byUser, ok := s.members[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	members := make([]Member, 0, len(byUser))
	for _, m := range byUser {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (s *MemoryStore) MemberOf(_ context.Context, userID string) (Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orgID, ok := s.memberships[userID]
	if !ok {
		return Member{}, ErrNotFound
	}
	return s.members[orgID][userID], nil
}

func (s *MemoryStore) AddMember(_ context.Context, member Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[member.OrgID]; !ok {
		return ErrNotFound
	}
	if _, taken := s.memberships[member.UserID]; taken {
		return dErrors.New(dErrors.CodeConflict, "user already belongs to an organisation")
	}
	s.members[member.OrgID][member.UserID] = member
	s.memberships[member.UserID] = member.OrgID
	return nil
}

func (s *MemoryStore) RemoveMember(_ context.Context, orgID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.members[orgID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := byUser[userID]; !ok {
		return ErrNotFound
	}
	delete(byUser, userID)
	delete(s.memberships, userID)
	return nil
}

func (s *MemoryStore) UpdateMemberRole(_ context.Context, orgID, userID string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.members[orgID]
	if !ok {
		return ErrNotFound
	}
	m, ok := byUser[userID]
	if !ok {
		return ErrNotFound
	}
	m.Role = role
	byUser[userID] = m
	return nil
}

func (s *MemoryStore) CreateInvitation(_ context.Context, inv Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitations[inv.ID] = inv
	return nil
}

func (s *MemoryStore) GetInvitation(_ context.Context, invID string) (Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[invID]
	if !ok {
		return Invitation{}, ErrNotFound
	}
	return inv, nil
}

func (s *MemoryStore) InvitationByEmail(_ context.Context, orgID, email string) (Invitation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitations {
		if inv.OrgID == orgID && strings.EqualFold(inv.Email, email) {
			return inv, true, nil
		}
	}
	return Invitation{}, false, nil
}

func (s *MemoryStore) DeleteInvitation(_ context.Context, invID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitations[invID]; !ok {
		return ErrNotFound
	}
	delete(s.invitations, invID)
	return nil
}
