package model

import "time"

// User represents an application user record as stored in the
// `users` table.  Version is bumped on every successful login.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Version      – optimistic concurrency counter.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Version      uint64    // users.version
    CreatedAt    time.Time // users.created_at
}

// Session models an entry in the `sessions` table.  Each login
// creates one.  The plain token is not stored; only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the session was ended by logout (null if active).
//  CreatedAt – timestamp of creation.
type Session struct {
    ID        uint64     // sessions.id
    UserID    uint64     // sessions.user_id
    TokenHash string     // sessions.token_hash
    ExpiresAt time.Time  // sessions.expires_at
    RevokedAt *time.Time // sessions.revoked_at (nullable)
    CreatedAt time.Time  // sessions.created_at
}

// Active reports whether the session can still authenticate at now.
func (s Session) Active(now time.Time) bool {
    return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
