package models

import "strconv"

const anonymousKey = "anonymous"

// UserScope identifies whose attempts and progress are read or written.
// It is either an identified user or the shared anonymous scope.
type UserScope struct {
	id         int64
	identified bool
}

// Identified returns the scope of a known user
func Identified(userID int64) UserScope {
	return UserScope{id: userID, identified: true}
}

// Anonymous returns the shared scope of attempts recorded without a user
func Anonymous() UserScope {
	return UserScope{}
}

// UserID returns the user id and whether the scope is identified
func (s UserScope) UserID() (int64, bool) {
	return s.id, s.identified
}

// IsAnonymous reports whether s is the anonymous scope
func (s UserScope) IsAnonymous() bool {
	return !s.identified
}

// Key is the persisted scope identifier
func (s UserScope) Key() string {
	if !s.identified {
		return anonymousKey
	}
	return "user:" + strconv.FormatInt(s.id, 10)
}

// Ptr returns the user id as a nullable column value
func (s UserScope) Ptr() *int64 {
	if !s.identified {
		return nil
	}
	id := s.id
	return &id
}

func (s UserScope) String() string {
	return s.Key()
}
