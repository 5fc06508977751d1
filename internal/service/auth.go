package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/concert-booking/internal/logging"
	"github.com/iliyamo/concert-booking/internal/model"
	"github.com/iliyamo/concert-booking/internal/repository"
	"github.com/iliyamo/concert-booking/internal/utils"
)

// loginAttempts bounds retries when concurrent logins of the same user
// race on the version bump.
const loginAttempts = 3

// AuthService issues and resolves session tokens.  A token is an HS256
// JWT; the sessions table holds its hash so logout can revoke it.
type AuthService struct {
	db       *sql.DB
	users    *repository.UserRepo
	sessions *repository.SessionRepo
	secret   string
	ttl      time.Duration
	log      *logging.Logger
}

func NewAuthService(db *sql.DB, users *repository.UserRepo, sessions *repository.SessionRepo, secret string, ttl time.Duration, log *logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{db: db, users: users, sessions: sessions, secret: secret, ttl: ttl, log: log.WithComponent("auth")}
}

// Login checks the credentials and opens a new session.  The user's
// version is bumped in the same transaction as the session insert.
func (s *AuthService) Login(ctx context.Context, username, password string) (utils.SessionToken, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		utils.BurnPasswordCheck(password)
		return utils.SessionToken{}, ErrInvalidCredentials
	}
	if err != nil {
		return utils.SessionToken{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return utils.SessionToken{}, ErrInvalidCredentials
	}

	tok, err := utils.NewSessionToken(s.secret, u.ID, s.ttl)
	if err != nil {
		return utils.SessionToken{}, fmt.Errorf("sign token: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = s.openSession(ctx, u, tok)
		if !errors.Is(err, repository.ErrConflict) || attempt == loginAttempts {
			break
		}
		// another login moved the version on; reload and retry
		if u, err = s.users.GetByID(ctx, u.ID); err != nil {
			return utils.SessionToken{}, fmt.Errorf("reload user: %w", err)
		}
	}
	if errors.Is(err, repository.ErrConflict) {
		return utils.SessionToken{}, ErrLoginContention
	}
	if err != nil {
		return utils.SessionToken{}, fmt.Errorf("open session: %w", err)
	}
	s.log.Info().Uint64("user_id", u.ID).Msg("login")
	return tok, nil
}

func (s *AuthService) openSession(ctx context.Context, u model.User, tok utils.SessionToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.users.BumpVersionTx(ctx, tx, u.ID, u.Version); err != nil {
		return err
	}
	if err := s.sessions.CreateTx(ctx, tx, u.ID, utils.HashToken(tok.Token), tok.Exp); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ResolveToken returns the user owning token.  The token must carry a
// valid signature, be unexpired and have an unrevoked session row.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrInvalidToken
	}
	uid, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return model.User{}, ErrInvalidToken
	}
	sessUID, err := s.sessions.Validate(ctx, utils.HashToken(token))
	if errors.Is(err, repository.ErrSessionNotFound) {
		return model.User{}, ErrInvalidToken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("validate session: %w", err)
	}
	if sessUID != uid {
		return model.User{}, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, ErrInvalidToken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// Logout revokes the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, utils.HashToken(token))
}
