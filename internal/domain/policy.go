package domain

// Access policy predicates. Pure functions of (ticket, actor) with no side
// effects; each one switches exhaustively over Role so that adding a role
// forces every rule to be revisited.

// CanView reports whether the actor may read the ticket. Admins see
// everything; a regular user sees tickets they created or are assigned to.
func CanView(t *Ticket, actor *User) bool {
	if t == nil || actor == nil {
		return false
	}
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		if t.CreatedBy == actor.ID {
			return true
		}
		return t.AssignedTo != nil && *t.AssignedTo == actor.ID
	default:
		return false
	}
}

// CanEdit reports whether the actor may modify the ticket. Non-admin
// creators keep edit rights only while the ticket is still New, so a
// ticket cannot be tampered with once triage has started.
func CanEdit(t *Ticket, actor *User) bool {
	if t == nil || actor == nil {
		return false
	}
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		return t.CreatedBy == actor.ID && t.Status == TicketStatusNew
	default:
		return false
	}
}

// CanDelete follows the same rule as CanEdit.
func CanDelete(t *Ticket, actor *User) bool {
	return CanEdit(t, actor)
}

// CanTransitionStatus reports whether the actor may change ticket status.
// Only admins may; the rule is independent of the ticket itself.
func CanTransitionStatus(actor *User) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}
