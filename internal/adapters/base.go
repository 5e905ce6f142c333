package adapters

import (
	"fmt"
)

// BaseAdapter provides common functionality for platform adapters
type BaseAdapter struct {
	authenticated bool
	platformName  string
}

func NewBaseAdapter(platformName string) BaseAdapter {
	return BaseAdapter{platformName: platformName}
}

func (b *BaseAdapter) SetAuthenticated(status bool) {
	b.authenticated = status
}

func (b *BaseAdapter) IsAuthenticated() bool {
	return b.authenticated
}

// CheckAuth ensures the adapter holds a client before making API calls.
func (b *BaseAdapter) CheckAuth() error {
	if !b.IsAuthenticated() {
		return fmt.Errorf("%s: %w: no authenticated client", b.platformName, ErrAuth)
	}
	return nil
}
