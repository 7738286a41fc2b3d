package cache

import "github.com/google/uuid"

// The fixed cache key scheme. Every mutation path must delete all keys that
// could hold a stale view of the entity it touched, so key construction is
// centralized here rather than scattered across callers.

// UserKey is the cache key for a resolved user identity.
func UserKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// TodoListKey is the cache key for a user's full list-of-todos view.
func TodoListKey(ownerID uuid.UUID) string {
	return "todos:" + ownerID.String()
}

// TodoKey is the cache key for a single-todo view.
func TodoKey(todoID uuid.UUID) string {
	return "todo:" + todoID.String()
}
