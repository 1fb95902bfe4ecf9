package cache

import "fmt"

// TreeKey holds the cached folder display tree
const TreeKey = "folders:tree"

// UnreadKey holds a user's cached unread notification count
func UnreadKey(userID int64) string {
	return fmt.Sprintf("unread:%d", userID)
}
