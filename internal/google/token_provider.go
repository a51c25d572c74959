package google

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"

	"github.com/teemow/multical/internal/logging"
)

// TokenProvider supplies OAuth token sources for Google accounts.
type TokenProvider interface {
	// TokenSource returns a refreshing token source for account.
	TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error)

	// HasTokenForAccount reports whether a token is stored for account.
	HasTokenForAccount(ctx context.Context, account string) bool
}

// AccountTokenStore is the durable token storage behind StoreTokenProvider.
type AccountTokenStore interface {
	Token(ctx context.Context, account string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, account string, token *oauth2.Token) error
}

const tokenSaveTimeout = 5 * time.Second

// StoreTokenProvider reads tokens from an AccountTokenStore, caches them in an
// mcp-oauth token store and persists refreshed tokens back to both.
type StoreTokenProvider struct {
	config *oauth2.Config
	store  AccountTokenStore
	cache  storage.TokenStore
	logger *slog.Logger
}

// NewStoreTokenProvider creates a StoreTokenProvider. cache may be nil.
func NewStoreTokenProvider(config *oauth2.Config, store AccountTokenStore, cache storage.TokenStore, logger *slog.Logger) *StoreTokenProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreTokenProvider{
		config: config,
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// GetTokenForAccount returns the current token of account, from the cache if present.
func (p *StoreTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	if p.cache != nil {
		if token, err := p.cache.GetToken(ctx, account); err == nil && token != nil {
			return token, nil
		}
	}

	token, err := p.store.Token(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no token for account %s: %w", account, err)
	}

	if p.cache != nil {
		if err := p.cache.SaveToken(ctx, account, token); err != nil {
			p.logger.Warn("failed to cache token", logging.Account(account), logging.Err(err))
		}
	}
	return token, nil
}

// HasTokenForAccount reports whether a token is stored for account.
func (p *StoreTokenProvider) HasTokenForAccount(ctx context.Context, account string) bool {
	_, err := p.GetTokenForAccount(ctx, account)
	return err == nil
}

// TokenSource returns a token source that refreshes through the OAuth config
// and saves every new access token. The source outlives ctx.
func (p *StoreTokenProvider) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	token, err := p.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	return &persistingTokenSource{
		ctx:      ctx,
		account:  account,
		base:     p.config.TokenSource(ctx, token),
		provider: p,
		last:     token.AccessToken,
	}, nil
}

func (p *StoreTokenProvider) save(ctx context.Context, account string, token *oauth2.Token) {
	ctx, cancel := context.WithTimeout(ctx, tokenSaveTimeout)
	defer cancel()

	if err := p.store.SaveToken(ctx, account, token); err != nil {
		p.logger.Warn("failed to persist refreshed token", logging.Account(account), logging.Err(err))
	}
	if p.cache != nil {
		if err := p.cache.SaveToken(ctx, account, token); err != nil {
			p.logger.Warn("failed to cache refreshed token", logging.Account(account), logging.Err(err))
		}
	}
	p.logger.Debug("refreshed token saved", logging.Account(account))
}

type persistingTokenSource struct {
	ctx      context.Context
	account  string
	base     oauth2.TokenSource
	provider *StoreTokenProvider

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token for account %s: %w", s.account, err)
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed {
		s.provider.save(s.ctx, s.account, token)
	}
	return token, nil
}
