package badger

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	userPrefix      = "user/"
	userOrderPrefix = "userc/"
	linkPrefix      = "link/"
	ownerPrefixStr  = "owner/"
)

// userKey: user/{userID}
func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

// Index keys carry IDs hex encoded so an ID containing "/" can neither
// split a key nor extend another ID's prefix.

// userOrderKey: userc/{createdAtNanos}/{hex(userID)}, ordered oldest first.
func userOrderKey(createdAt time.Time, id string) []byte {
	return fmt.Appendf(nil, "%s%020d/%x", userOrderPrefix, createdAt.UnixNano(), id)
}

// linkKey: link/{linkID}
func linkKey(id string) []byte {
	return []byte(linkPrefix + id)
}

// ownerPrefix: owner/{hex(userID)}/
func ownerPrefix(userID string) []byte {
	return fmt.Appendf(nil, "%s%x/", ownerPrefixStr, userID)
}

// ownerKey: owner/{hex(userID)}/{createdAtNanos}/{hex(linkID)}
func ownerKey(userID string, createdAt time.Time, id string) []byte {
	return fmt.Appendf(ownerPrefix(userID), "%020d/%x", createdAt.UnixNano(), id)
}

// idFromIndexKey returns the trailing hex encoded ID segment of an index key.
func idFromIndexKey(key []byte) (string, error) {
	id, err := hex.DecodeString(string(key[bytes.LastIndexByte(key, '/')+1:]))
	if err != nil {
		return "", fmt.Errorf("corrupt index key %q: %w", key, err)
	}
	return string(id), nil
}
