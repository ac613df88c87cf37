package realtime

import "strings"

// Room keys are deterministic strings so that any layer can address a
// room from an entity ID alone.

func BatchRoom(batchID string) string {
	return "batch_" + batchID
}

func UserRoom(userID string) string {
	return "user_" + userID
}

func RoleRoom(role string) string {
	return "role_" + strings.ToLower(role)
}
