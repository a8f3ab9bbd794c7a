package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	oauthStateTTL     = 10 * time.Minute
)

// GoogleAuthConfig configures the Google authorization code flow.
// Endpoint and UserInfoURL default to Google's and are overridable for tests.
type GoogleAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     *oauth2.Endpoint
	UserInfoURL  string
}

// GoogleAuthService signs users in with a Google authorization code.
type GoogleAuthService struct {
	oauth       *oauth2.Config
	userInfoURL string
	users       authUserRepository
	auth        *AuthService
	states      *gocache.Cache
	logger      *zap.Logger
}

func NewGoogleAuthService(cfg GoogleAuthConfig, users authUserRepository, auth *AuthService, logger *zap.Logger) *GoogleAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := endpoints.Google
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = googleUserInfoURL
	}
	return &GoogleAuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfo,
		users:       users,
		auth:        auth,
		states:      gocache.New(oauthStateTTL, time.Minute),
		logger:      logger,
	}
}

// Enabled reports whether a client id is configured.
func (s *GoogleAuthService) Enabled() bool {
	return s != nil && s.oauth.ClientID != ""
}

// AuthURL returns the consent URL with a fresh single-use state.
func (s *GoogleAuthService) AuthURL() (*models.GoogleAuthURL, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "google sign-in is not configured")
	}
	state, err := generateRandomToken()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create oauth state")
	}
	s.states.SetDefault(state, struct{}{})
	return &models.GoogleAuthURL{URL: s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), State: state}, nil
}

// Login exchanges the code, loads the Google profile and signs the matching user in.
// Unknown emails get a new STUDENT account.
func (s *GoogleAuthService) Login(ctx context.Context, req models.GoogleLoginRequest) (*models.LoginResponse, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "google sign-in is not configured")
	}
	if blank(req.Code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "authorization code is required")
	}
	if req.State != "" {
		if _, ok := s.states.Get(req.State); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "oauth state is unknown or expired")
		}
		s.states.Delete(req.State)
	}

	token, err := s.oauth.Exchange(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "google code exchange failed")
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "failed to read google profile")
	}
	if !profile.EmailVerified || profile.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "google account email is not verified")
	}

	user, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if !user.IsActive {
			return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
		}
	case errors.Is(err, sql.ErrNoRows):
		user, err = s.createFromProfile(ctx, profile)
		if err != nil {
			return nil, err
		}
		s.logger.Info("created user from google profile", zap.String("user_id", user.ID))
	default:
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	resp, err := s.auth.issueSession(ctx, user, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}
	s.auth.audit(ctx, user.ID, models.AuditActionLogin, `{"provider":"google"}`, req.IP, req.UserAgent)
	return resp, nil
}

func (s *GoogleAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*models.GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile models.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &profile, nil
}

func (s *GoogleAuthService) createFromProfile(ctx context.Context, profile *models.GoogleProfile) (*models.User, error) {
	secret, err := generateRandomToken()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.Split(profile.Email, "@")[0]
	}
	user := &models.User{
		Name:         name,
		Email:        strings.ToLower(profile.Email),
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}
	return user, nil
}
