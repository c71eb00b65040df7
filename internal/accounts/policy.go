package accounts

// CanMutate decides whether a principal may mutate the target account.
// A super admin may mutate any account; everyone else only their own.
// Callers confirm the target exists before evaluating the policy, so an
// unknown target reads as not-found rather than forbidden.
func CanMutate(p Principal, targetID string) bool {
	if p.UserType == UserTypeSuperAdmin {
		return true
	}
	return p.ID != "" && p.ID == targetID
}
