package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authservice/internal/domain"
	"authservice/internal/pkg/password"
	"authservice/internal/repository"

	"github.com/google/uuid"
)

const (
	grantPassword = "password"
	grantRefresh  = "refresh_token"
)

// Service implements the grants, token introspection and revocation.
type Service struct {
	accounts AccountSource
	tokens   TokenLedger
	now      func() time.Time
}

func NewService(accounts AccountSource, tokens TokenLedger) *Service {
	return &Service{accounts: accounts, tokens: tokens, now: time.Now}
}

// Token runs the requested grant and mints a token set.
func (s *Service) Token(ctx context.Context, req TokenRequest) (*TokenSet, error) {
	switch req.GrantType {
	case grantPassword:
		return s.passwordGrant(ctx, req)
	case grantRefresh:
		return s.refreshGrant(ctx, req)
	default:
		return nil, invalidRequest("The grant_type is either missing or not supported")
	}
}

func (s *Service) passwordGrant(ctx context.Context, req TokenRequest) (*TokenSet, error) {
	if req.Username == "" || req.Password == "" {
		return nil, invalidRequest("The username and password fields are required for the password grant")
	}
	if req.RefreshToken != "" {
		return nil, invalidRequest(`Supplying a refresh_token during a "password" grant is not allowed`)
	}

	account, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	// One body for every credential failure so probing cannot tell an
	// unknown username from a wrong password or a deactivated account.
	if account == nil || !account.Active || !password.Verify(account.Password, req.Password) {
		return nil, invalidGrant("The supplied username/password combination is not valid")
	}

	issued, err := narrowScopes(account.EffectiveScopes(), req.Scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	access, refresh, err := s.tokens.Issue(ctx, account.ID, issued, now)
	if err != nil {
		return nil, err
	}
	return newTokenSet(access, refresh, now), nil
}

func (s *Service) refreshGrant(ctx context.Context, req TokenRequest) (*TokenSet, error) {
	if req.RefreshToken == "" {
		return nil, invalidRequest("The refresh_token field is required for the refresh_token grant")
	}
	if req.Username != "" || req.Password != "" {
		return nil, invalidRequest(`Supplying credentials during a "refresh_token" grant is not allowed`)
	}
	if !isTokenValue(req.RefreshToken) {
		return nil, invalidRequest("The refresh_token is malformed")
	}

	now := s.now()
	if req.Scope != "" {
		// The scope parameter may never widen the original snapshot; a
		// subset request is allowed but the snapshot still propagates.
		token, err := s.tokens.FindRefreshByValue(ctx, req.RefreshToken)
		if err != nil {
			return nil, err
		}
		if token == nil || token.IsExpired(now) || !token.Account.Active {
			return nil, invalidGrant("The refresh token is unknown, expired or no longer usable")
		}
		if _, err := narrowScopes(token.Scopes, req.Scope); err != nil {
			return nil, err
		}
	}

	access, refresh, err := s.tokens.ConsumeRefresh(ctx, req.RefreshToken, now)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenInvalid) {
			return nil, invalidGrant("The refresh token is unknown, expired or no longer usable")
		}
		return nil, err
	}
	return newTokenSet(access, refresh, now), nil
}

// Introspect reports the state of a token value. Invalid tokens never
// produce an error, only active=false.
func (s *Service) Introspect(ctx context.Context, value, scope string) (*Introspection, error) {
	now := s.now()
	required := strings.Fields(scope)

	access, err := s.tokens.FindAccessByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if access != nil {
		granted := access.ScopeValues()
		if !access.IsUsable(now) || !access.Account.Active || !holdsAll(granted, required) {
			return &Introspection{Active: false}, nil
		}
		return &Introspection{
			Active:    true,
			Scope:     strings.Join(granted, " "),
			Username:  access.Account.Username,
			TokenType: "access_token",
			Exp:       access.Expires,
			Iat:       access.Created,
		}, nil
	}

	refresh, err := s.tokens.FindRefreshByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if refresh != nil {
		granted := refresh.ScopeValues()
		if refresh.IsExpired(now) || !refresh.Account.Active || !holdsAll(granted, required) {
			return &Introspection{Active: false}, nil
		}
		return &Introspection{
			Active:    true,
			Scope:     strings.Join(granted, " "),
			Username:  refresh.Account.Username,
			TokenType: "refresh_token",
			Exp:       refresh.Expires,
		}, nil
	}

	return &Introspection{Active: false}, nil
}

// Revoke withdraws the token value when it belongs to owner. Foreign and
// unknown values are left untouched while the call still succeeds, so the
// endpoint never reveals whether a value exists.
func (s *Service) Revoke(ctx context.Context, owner *domain.Account, value string) error {
	access, err := s.tokens.FindAccessByValue(ctx, value)
	if err != nil {
		return err
	}
	if access != nil {
		if access.AccountID != owner.ID {
			return nil
		}
		return s.tokens.Revoke(ctx, value)
	}

	refresh, err := s.tokens.FindRefreshByValue(ctx, value)
	if err != nil {
		return err
	}
	if refresh != nil {
		if refresh.AccountID != owner.ID {
			return nil
		}
		return s.tokens.Revoke(ctx, value)
	}
	return nil
}

// RevokeAny withdraws the token value without an owner check. Reserved for
// trusted callers such as the broker consumer.
func (s *Service) RevokeAny(ctx context.Context, value string) error {
	return s.tokens.Revoke(ctx, value)
}

// narrowScopes validates a requested scope string against the granted set
// and returns the subset to issue. An empty request keeps the full set.
func narrowScopes(granted []domain.Scope, requested string) ([]domain.Scope, error) {
	if requested == "" {
		return granted, nil
	}
	byValue := make(map[string]domain.Scope, len(granted))
	for _, s := range granted {
		byValue[s.Value] = s
	}
	var issued []domain.Scope
	seen := make(map[string]bool)
	for _, value := range strings.Fields(requested) {
		s, ok := byValue[value]
		if !ok {
			return nil, invalidScope(fmt.Sprintf("The scope %q is not available to this grant", value))
		}
		if seen[value] {
			continue
		}
		seen[value] = true
		issued = append(issued, s)
	}
	return issued, nil
}

func holdsAll(granted, required []string) bool {
	for _, r := range required {
		found := false
		for _, g := range granted {
			if g == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// isTokenValue reports whether the value has the canonical 36 character
// UUID form every ledger token is minted with.
func isTokenValue(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

func newTokenSet(access *domain.AccessToken, refresh *domain.RefreshToken, now time.Time) *TokenSet {
	return &TokenSet{
		AccessToken:  access.Value,
		TokenType:    "bearer",
		ExpiresIn:    access.Expires - now.Unix(),
		RefreshToken: refresh.Value,
		Scope:        strings.Join(access.ScopeValues(), " "),
	}
}
