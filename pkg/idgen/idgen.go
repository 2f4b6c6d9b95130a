package idgen

import (
	"sync"

	"github.com/Craig-Turley/listsync/pkg/utils"
	"github.com/bwmarrin/snowflake"
)

var (
	mu sync.RWMutex
	sf *snowflake.Node
)

// Init sets up the snowflake node used for every local list and member id.
func Init(node int64) error {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return err
	}

	mu.Lock()
	sf = n
	mu.Unlock()
	return nil
}

// NewId panics when Init was never called; ids are not optional.
func NewId() snowflake.ID {
	mu.RLock()
	defer mu.RUnlock()

	if sf == nil {
		panic(utils.ERROR_NODE_NOT_INITIALIZED)
	}
	return sf.Generate()
}

// Parse reads an id from a path segment.
func Parse(s string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(s)
	if err != nil || id <= 0 {
		return 0, utils.NewError(utils.ERROR_INVALID_ID, s)
	}
	return id, nil
}
