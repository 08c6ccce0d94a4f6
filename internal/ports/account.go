package ports

import "context"

// AccountPort pushes profile changes to the backing account system.
type AccountPort interface {
	// UpdateProfile sets the user's username and display name.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}
