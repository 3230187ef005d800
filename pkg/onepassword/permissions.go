package onepassword

import "strings"

// PermissionTier orders vault access from weakest to strongest. Each tier is a
// strict superset of the previous one: managing implies editing implies
// viewing.
type PermissionTier int

const (
	TierViewing PermissionTier = iota
	TierEditing
	TierManaging
)

func (t PermissionTier) String() string {
	switch t {
	case TierManaging:
		return "managing"
	case TierEditing:
		return "editing"
	default:
		return "viewing"
	}
}

// TierFor maps source folder grant flags onto the maximal permission tier they
// imply.
func TierFor(manageUsers, manageRecords bool) PermissionTier {
	switch {
	case manageUsers:
		return TierManaging
	case manageRecords:
		return TierEditing
	default:
		return TierViewing
	}
}

// Permissions returns the full permission set for a tier, including everything
// implied by weaker tiers, so a single grant call carries the whole set.
func (t PermissionTier) Permissions() []string {
	perms := []string{"allow_viewing"}
	if t >= TierEditing {
		perms = append(perms, "allow_editing")
	}
	if t >= TierManaging {
		perms = append(perms, "allow_managing")
	}
	return perms
}

func joinPermissions(permissions []string) string {
	return strings.Join(permissions, ",")
}
