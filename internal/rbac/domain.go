package rbac

import (
	"fmt"
)

// Role is a closed enumeration of the two account roles.
type Role string

const (
	// RoleInventoryManager has full rights on every resource.
	RoleInventoryManager Role = "inventory_manager"
	// RoleWarehouseStaff may read most resources and execute operations.
	RoleWarehouseStaff Role = "warehouse_staff"
)

// ParseRole validates a role string coming from storage or a token claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInventoryManager, RoleWarehouseStaff:
		return Role(s), nil
	}
	return "", fmt.Errorf("rbac: unknown role %q", s)
}

// Resource enumerates the permission-gated resource groups.
type Resource string

const (
	ResourceProducts   Resource = "products"
	ResourceInventory  Resource = "inventory"
	ResourceOperations Resource = "operations"
	ResourceWarehouses Resource = "warehouses"
	ResourceLocations  Resource = "locations"
	ResourceSettings   Resource = "settings"
	ResourceReports    Resource = "reports"
	ResourceUsers      Resource = "users"
)

// Action enumerates the permission verbs.
type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionExecute Action = "execute"
)

type actionSet map[Action]struct{}

func actions(list ...Action) actionSet {
	set := make(actionSet, len(list))
	for _, a := range list {
		set[a] = struct{}{}
	}
	return set
}

// matrix is the static role -> resource -> action grant table. Managers hold
// every right; staff read most resources and execute inventory operations.
var matrix = map[Role]map[Resource]actionSet{
	RoleInventoryManager: {
		ResourceProducts:   actions(ActionRead, ActionWrite, ActionDelete, ActionUpdate),
		ResourceInventory:  actions(ActionRead, ActionWrite, ActionDelete, ActionUpdate, ActionExecute),
		ResourceOperations: actions(ActionRead, ActionWrite, ActionDelete, ActionUpdate, ActionExecute),
		ResourceWarehouses: actions(ActionRead, ActionWrite, ActionDelete, ActionUpdate),
		ResourceLocations:  actions(ActionRead, ActionWrite, ActionDelete, ActionUpdate),
		ResourceSettings:   actions(ActionRead, ActionWrite, ActionUpdate),
		ResourceReports:    actions(ActionRead, ActionWrite),
		ResourceUsers:      actions(ActionRead, ActionUpdate),
	},
	RoleWarehouseStaff: {
		ResourceProducts:   actions(ActionRead),
		ResourceInventory:  actions(ActionRead, ActionExecute),
		ResourceOperations: actions(ActionRead, ActionExecute),
		ResourceWarehouses: actions(ActionRead),
		ResourceLocations:  actions(ActionRead),
		ResourceReports:    actions(ActionRead),
	},
}

// Allowed reports whether role may perform action on resource.
func Allowed(role Role, resource Resource, action Action) bool {
	grants, ok := matrix[role]
	if !ok {
		return false
	}
	set, ok := grants[resource]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}
