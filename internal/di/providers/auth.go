package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readinglists-server/internal/auth"
	"github.com/listenupapp/readinglists-server/internal/config"
	"github.com/listenupapp/readinglists-server/internal/logger"
)

// StateKey wraps the key that encrypts login state cookies.
type StateKey []byte

// ProvideStateKey loads or generates the state key. Without a key directory
// (in-memory stores) the key lives only as long as the process.
func ProvideStateKey(i do.Injector) (StateKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.KeyPath == "" {
		key, err := auth.GenerateKey()
		if err != nil {
			return nil, err
		}
		log.Warn("Using an ephemeral login state key; pending logins will not survive a restart")
		return StateKey(key), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Auth.KeyPath)
	if err != nil {
		return nil, err
	}
	log.Info("Login state key loaded", "path", cfg.Auth.KeyPath)

	return StateKey(key), nil
}

// ProvideVerifier provides the bearer token verifier.
func ProvideVerifier(i do.Injector) (*auth.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	verifier := auth.NewVerifier(auth.NewRemoteKeySet(cfg.Auth.JWKSURL, nil), auth.VerifierConfig{
		Issuer:     cfg.Auth.IssuerURL,
		Audience:   cfg.Auth.ClientID,
		Algorithms: cfg.Auth.Algorithms,
	})

	log.Info("Token verifier configured",
		"issuer", cfg.Auth.IssuerURL,
		"jwks_url", cfg.Auth.JWKSURL,
		"algorithms", cfg.Auth.Algorithms,
	)

	return verifier, nil
}

// LoginFlow holds the OAuth client and state codec behind /login and
// /callback. Both are nil when login is not configured.
type LoginFlow struct {
	OAuth *auth.OAuthClient
	State *auth.StateCodec
}

// ProvideLoginFlow provides the OAuth2 code flow if the issuer domain and
// client secret are configured.
func ProvideLoginFlow(i do.Injector) (*LoginFlow, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.LoginEnabled() {
		log.Info("Login endpoints disabled; set AUTH_DOMAIN and AUTH_CLIENT_SECRET to enable")
		return &LoginFlow{}, nil
	}

	key := do.MustInvoke[StateKey](i)
	state, err := auth.NewStateCodec(key, cfg.Auth.StateTTL)
	if err != nil {
		return nil, err
	}

	authURL, tokenURL := auth.IssuerEndpoints(cfg.Auth.Domain)
	client := auth.NewOAuthClient(auth.OAuthConfig{
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURL:  cfg.Auth.CallbackURL,
	})

	log.Info("Login endpoints enabled", "callback_url", cfg.Auth.CallbackURL)

	return &LoginFlow{OAuth: client, State: state}, nil
}
