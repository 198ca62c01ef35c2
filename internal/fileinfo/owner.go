package fileinfo

import (
	"os/user"
	"strconv"
	"sync"
)

// OwnerCache resolves numeric user IDs to user names.
// Lookups hit the user database once per UID. It is safe for concurrent use.
type OwnerCache struct {
	mu     sync.Mutex
	names  map[int]string
	lookup func(uid int) (string, error)
}

// NewOwnerCache creates an OwnerCache backed by os/user.
func NewOwnerCache() *OwnerCache {
	return &OwnerCache{
		names:  make(map[int]string),
		lookup: lookupUsername,
	}
}

// Lookup returns the user name for uid, or "" if it cannot be resolved.
// Failures are cached too.
func (c *OwnerCache) Lookup(uid int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name, ok := c.names[uid]; ok {
		return name
	}

	name, err := c.lookup(uid)
	if err != nil {
		name = ""
	}
	c.names[uid] = name
	return name
}

// Current returns the UID of the running user, or -1 if unknown.
func Current() int {
	u, err := user.Current()
	if err != nil {
		return -1
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return -1
	}
	return uid
}

func lookupUsername(uid int) (string, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", err
	}
	return u.Username, nil
}
