package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/api"
	"github.com/elysian-app/elysian/internal/config"
	"github.com/elysian-app/elysian/internal/history"
	"github.com/elysian-app/elysian/internal/i18n"
	"github.com/elysian-app/elysian/internal/identity"
	"github.com/elysian-app/elysian/internal/vocab"
)

// session is the client stack a command runs against: resolved
// configuration, the identity provider, the stored credentials and the
// learning API.
type session struct {
	cfg    *config.Config
	ids    *identity.Client
	creds  *identity.CredentialStore
	tokens *identity.TokenSource
	api    *api.Client
}

// newSession resolves configuration, configures logging and i18n, and
// wires the clients. API calls carry a bearer token once the learner
// has signed in; anonymous calls land on the sandbox's demo user.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)
	if err := i18n.Init(cfg.Lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	ids := identity.NewClient(cfg.IdentityURL, cfg.APIKey,
		identity.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	creds := identity.NewCredentialStore(cfg.CredentialsPath)
	tokens := identity.NewTokenSource(ids, creds)

	opts := []api.Option{api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout})}
	if tokens.Authenticated() {
		opts = append(opts, api.WithTokenSource(tokens))
	}

	return &session{
		cfg:    cfg,
		ids:    ids,
		creds:  creds,
		tokens: tokens,
		api:    api.NewClient(cfg.APIURL, opts...),
	}, nil
}

// ctx returns a background context carrying the session's localizer.
func (s *session) ctx() context.Context {
	return i18n.WithLocalizer(context.Background(), i18n.NewLocalizer(s.cfg.Lang))
}

// openHistory opens the local practice log, creating its directory on
// first use.
func (s *session) openHistory() (*history.Store, error) {
	if err := config.EnsureParent(s.cfg.HistoryPath); err != nil {
		return nil, fmt.Errorf("prepare history path: %w", err)
	}
	return history.New(s.cfg.HistoryPath)
}

// openVocab builds the word-lookup service over the local cache. The
// returned func closes the cache.
func (s *session) openVocab() (*vocab.Service, func(), error) {
	if err := config.EnsureParent(s.cfg.VocabCachePath); err != nil {
		return nil, nil, fmt.Errorf("prepare vocabulary cache path: %w", err)
	}
	cache, err := vocab.OpenCache(s.cfg.VocabCachePath)
	if err != nil {
		return nil, nil, err
	}
	copts := []vocab.ClientOption{vocab.WithHTTPClient(&http.Client{Timeout: s.cfg.Timeout})}
	if s.cfg.DictURL != "" {
		copts = append(copts, vocab.WithBaseURL(s.cfg.DictURL))
	}
	svc := vocab.NewService(cache, vocab.NewClient(copts...))
	return svc, func() { _ = cache.Close() }, nil
}
