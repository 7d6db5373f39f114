package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/validation"
)

const tokenIssuer = "todo-tracker"

// dummyHash is compared against when a username is unknown so that a failed
// login costs the same either way.
var dummyHash = func() string {
	u := &domain.User{}
	if err := u.SetPassword("not-a-real-password"); err != nil {
		panic(err)
	}
	return u.PasswordHash
}()

// Identity is the authenticated caller of a request.
type Identity struct {
	User      *domain.User
	SessionID string
}

// AuthService registers accounts and manages login sessions. Sessions are
// stored rows; the token handed to clients is a signed JWT naming the
// session, so deleting the row revokes the token.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	// Login returns a signed session token for valid credentials, or
	// ErrInvalidCredentials.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	// Authenticate resolves a token to its user, or ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*Identity, error)
	Logout(ctx context.Context, sessionID string) error
	// DeleteAccount removes the user with all their todos, categories and
	// sessions.
	DeleteAccount(ctx context.Context, userID uint) error
}

type authService struct {
	store  repository.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates an AuthService signing tokens with secret. A nil
// clock means time.Now.
func NewAuthService(store repository.Store, secret string, ttl time.Duration, now func() time.Time) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authService{store: store, secret: []byte(secret), ttl: ttl, now: now}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	verr := &ValidationError{}
	ok, msg := validation.Username(req.Username)
	verr.Check("username", ok, msg)
	ok, msg = validation.Email(req.Email)
	verr.Check("email", ok, msg)
	ok, msg = validation.Password(req.Password)
	verr.Check("password", ok, msg)
	if req.ConfirmPassword != req.Password {
		verr.Add("confirm_password", "Passwords must match")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user := &domain.User{Username: req.Username, Email: req.Email}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, invalid("password", err.Error())
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := checkTaken(ctx, tx, user, verr); err != nil {
			return err
		}
		if err := verr.Err(); err != nil {
			return err
		}
		return tx.Users().Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Another registration committed the same name or email between the
		// checks and the insert.
		if err = checkTaken(ctx, s.store, user, verr); err == nil {
			if len(verr.Fields) == 0 {
				verr.Add("username", usernameTaken)
			}
			err = verr
		}
	}
	if err != nil {
		return nil, logUnexpected("Register", err)
	}
	log.Printf("Registered user %d (%s)", user.ID, user.Username)
	return user, nil
}

const (
	usernameTaken = "Username already taken. Please choose a different one."
	emailTaken    = "Email already registered. Please use a different one."
)

// checkTaken records a field error for a username or email already in use.
func checkTaken(ctx context.Context, store repository.Store, user *domain.User, verr *ValidationError) error {
	taken, err := store.Users().UsernameTaken(ctx, user.Username)
	if err != nil {
		return err
	}
	if taken {
		verr.Add("username", usernameTaken)
	}
	taken, err = store.Users().EmailTaken(ctx, user.Email)
	if err != nil {
		return err
	}
	if taken {
		verr.Add("email", emailTaken)
	}
	return nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", nil, logUnexpected("Login", err)
		}
		(&domain.User{PasswordHash: dummyHash}).CheckPassword(password)
		return "", nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if n, err := s.store.Sessions().DeleteExpired(ctx, now); err != nil {
		log.Printf("Failed to prune expired sessions: %v", err)
	} else if n > 0 {
		log.Printf("Pruned %d expired sessions", n)
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return "", nil, logUnexpected("Login", err)
	}

	token, err := s.sign(session)
	if err != nil {
		return "", nil, logUnexpected("Login", err)
	}
	return token, user, nil
}

func (s *authService) sign(session *domain.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   strconv.FormatUint(uint64(session.UserID), 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	session, err := s.store.Sessions().FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, logUnexpected("Authenticate", err)
	}
	if session.Expired(s.now()) || strconv.FormatUint(uint64(session.UserID), 10) != claims.Subject {
		return nil, ErrUnauthenticated
	}

	user, err := s.store.Users().FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, logUnexpected("Authenticate", err)
	}
	return &Identity{User: user, SessionID: session.ID}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Sessions().Delete(ctx, sessionID); err != nil {
		return logUnexpected("Logout", err)
	}
	return nil
}

func (s *authService) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return logUnexpected("DeleteAccount", err)
	}
	log.Printf("Deleted user %d", userID)
	return nil
}

