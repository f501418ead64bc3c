// Package authority provides a configuration-backed AuthorityChecker.
// Reviewer ids per role come from the application config; deployments with
// a real identity provider swap in their own port.AuthorityChecker.
package authority

import (
	"context"

	"github.com/claimsuite/claimflow/internal/application/port"
	"github.com/claimsuite/claimflow/internal/domain/claim"
)

// StaticChecker answers authority checks from fixed role membership lists
type StaticChecker struct {
	members map[claim.Role]map[string]struct{}
}

// NewStaticChecker builds a checker from coordinator and manager id lists
func NewStaticChecker(coordinators, managers []string) *StaticChecker {
	c := &StaticChecker{
		members: map[claim.Role]map[string]struct{}{
			claim.RoleCoordinator: make(map[string]struct{}, len(coordinators)),
			claim.RoleManager:     make(map[string]struct{}, len(managers)),
		},
	}
	for _, id := range coordinators {
		c.members[claim.RoleCoordinator][id] = struct{}{}
	}
	for _, id := range managers {
		c.members[claim.RoleManager][id] = struct{}{}
	}
	return c
}

// IsAuthority reports whether the reviewer holds the given role
func (c *StaticChecker) IsAuthority(_ context.Context, reviewerID string, role claim.Role) (bool, error) {
	ids, ok := c.members[role]
	if !ok {
		return false, nil
	}
	_, ok = ids[reviewerID]
	return ok, nil
}

var _ port.AuthorityChecker = (*StaticChecker)(nil)
