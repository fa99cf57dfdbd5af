package domain

// LockStatus is the per-room Edit-Lock as seen by clients.
// A nil LockedBy means the room is unlocked.
type LockStatus struct {
	LockedBy *UserID `json:"lockedBy"`
	Username *string `json:"username"`
}

func Unlocked() LockStatus { return LockStatus{} }

func LockedBy(id UserID, username string) LockStatus {
	return LockStatus{LockedBy: &id, Username: &username}
}

func (s LockStatus) IsLocked() bool { return s.LockedBy != nil }

// Holder returns the holder id, or "" when unlocked.
func (s LockStatus) Holder() UserID {
	if s.LockedBy == nil {
		return ""
	}
	return *s.LockedBy
}
