// Package token provides enrichment hooks that authorize docriver
// submissions with bearer tokens.
package token

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/submission"
)

// Grant is an issued authorization. Tx is set when the source assigned the
// transaction id.
type Grant struct {
	Authorization string
	Tx            string
}

// Source issues grants for a set of permissions.
type Source interface {
	Grant(ctx context.Context, perms Permissions) (Grant, error)
}

// NewSource builds the source selected by cfg.Mode. It returns nil for
// ModeNone.
func NewSource(cfg *Config, client *http.Client) (Source, error) {
	switch cfg.Mode {
	case ModeNone:
		return nil, nil
	case ModeJWT:
		return NewIssuer(cfg)
	case ModeServer:
		return NewServerSource(cfg, client), nil
	case ModeOIDC:
		return NewOIDCSource(cfg, client), nil
	default:
		return nil, ErrUnknownMode
	}
}

// Hook enriches each submission with an authorization from src. The
// request's own tx is kept unless src assigns one.
func Hook(src Source, base Permissions, logger *slog.Logger) submission.Hook {
	logger = logger.With("system", "token")

	return submission.SyncHook(func(ctx context.Context, req submission.Request) (submission.Enrichment, error) {
		perms := ForSubmit(base, req)

		g, err := src.Grant(ctx, perms)
		if err != nil {
			logger.WarnContext(ctx, "token grant failed", "error", err)
			return nil, err
		}

		e := submission.Enrichment{submission.FieldAuthorization: g.Authorization}
		if g.Tx != "" {
			e[submission.FieldTx] = g.Tx
		}
		logger.DebugContext(ctx, "token granted", "tx", g.Tx, "documents", perms["documentCount"])
		return e, nil
	})
}

// NewHook builds the source for cfg and wraps it in a Hook. It returns nil
// when no token source is configured.
func NewHook(cfg *Config, client *http.Client, logger *slog.Logger) (submission.Hook, error) {
	src, err := NewSource(cfg, client)
	if err != nil || src == nil {
		return nil, err
	}
	base, err := ParsePermissions(cfg.Permissions)
	if err != nil {
		return nil, err
	}
	return Hook(src, base, logger), nil
}

// Authorize grants an authorization for the permissions scope derives
// from the configured ones. It returns "" when no token source is
// configured.
func Authorize(ctx context.Context, cfg *Config, client *http.Client, scope func(Permissions) Permissions) (string, error) {
	src, err := NewSource(cfg, client)
	if err != nil || src == nil {
		return "", err
	}
	base, err := ParsePermissions(cfg.Permissions)
	if err != nil {
		return "", err
	}
	g, err := src.Grant(ctx, scope(base))
	if err != nil {
		return "", err
	}
	return g.Authorization, nil
}

// NewViewHook builds a viewer hook that authorizes reading each document
// it opens. It returns nil when no token source is configured. A failed
// grant is logged and the document opens without authorization.
func NewViewHook(cfg *Config, client *http.Client, logger *slog.Logger) (docriver.ViewHook, error) {
	src, err := NewSource(cfg, client)
	if err != nil || src == nil {
		return nil, err
	}
	base, err := ParsePermissions(cfg.Permissions)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, document string, done func(docriver.ViewParams)) {
		g, err := src.Grant(ctx, ForDocument(base, document))
		if err != nil {
			logger.WarnContext(ctx, "view authorization failed", "document", document, "error", err)
			done(nil)
			return
		}
		done(docriver.ViewParams{"authorization": g.Authorization})
	}, nil
}

// HookName is the registry name of the token hook.
const HookName = "token"

// Install registers hook under HookName and returns the registry with the
// hook to apply directly. The direct hook is nil when onSubmit already
// selects the token hook by name, or when hook is nil.
func Install(hook submission.Hook, onSubmit string) (*submission.Registry, submission.Hook) {
	registry := submission.NewRegistry()
	if hook == nil {
		return registry, nil
	}
	registry.RegisterHook(HookName, hook)
	if onSubmit == HookName {
		return registry, nil
	}
	return registry, hook
}
