// Package service implements the account and session lifecycle: register,
// login, logout, refresh, password change, profile/media updates and the
// channel/history read views. It coordinates the store, hasher, token
// service and media store, and reports failures through the sentinel
// errors below, which the controllers map to status codes at one place.
package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/arjundev/vidtubebackend/auth"
	"github.com/arjundev/vidtubebackend/media"
	"github.com/arjundev/vidtubebackend/store"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrValidation — malformed or missing input. 400.
	ErrValidation = fmt.Errorf("validation failed")

	// ErrConflict — username or email already taken. 409.
	ErrConflict = fmt.Errorf("already exists")

	// ErrAuth — bad credentials or invalid/expired/revoked token. 401.
	ErrAuth = fmt.Errorf("unauthorized")

	// ErrNotFound — referenced account or channel missing. 404.
	ErrNotFound = fmt.Errorf("not found")

	// ErrUpstream — the media store failed. 500.
	ErrUpstream = fmt.Errorf("upstream failure")

	// ErrInternal — a post-condition failed, e.g. a created record could
	// not be read back. 500.
	ErrInternal = fmt.Errorf("internal error")
)

// EmailPolicy decides whether an email address is acceptable. The default
// policy only requires a parseable address; deployments with stricter
// rules inject their own.
type EmailPolicy func(email string) error

func DefaultEmailPolicy(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

type Service struct {
	store       store.UserStore
	hasher      *auth.Hasher
	tokens      *auth.TokenService
	media       media.Store
	emailPolicy EmailPolicy
}

func New(users store.UserStore, hasher *auth.Hasher, tokens *auth.TokenService, mediaStore media.Store, policy EmailPolicy) *Service {
	if policy == nil {
		policy = DefaultEmailPolicy
	}
	return &Service{
		store:       users,
		hasher:      hasher,
		tokens:      tokens,
		media:       mediaStore,
		emailPolicy: policy,
	}
}

// normalizeUsername lowercases and NFKC-folds a username so visually
// identical names collide on the unique index instead of coexisting.
func normalizeUsername(username string) string {
	return norm.NFKC.String(strings.ToLower(strings.TrimSpace(username)))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fail(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}
