package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName is the cookie the web app stores the session JWT in.
const CookieName = "launchready_jwt"

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrMissingProjectID     = errors.New("missing project ID in token")
	ErrProjectIDMismatch    = errors.New("project ID mismatch between token and URL")
)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request.
	// It checks the CookieName cookie first, then a Bearer Authorization header.
	// Returns the validated claims, the raw token string, or an error.
	ValidateRequest(r *http.Request) (*Claims, string, error)

	// RequireProjectID validates that the claims contain a project ID.
	RequireProjectID(claims *Claims) error

	// ValidateProjectIDMatch ensures the URL project ID matches the token project ID.
	// If urlProjectID is empty, validation is skipped.
	ValidateProjectIDMatch(claims *Claims, urlProjectID string) error
}

type authService struct {
	jwksClient JWKSClientInterface
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client and logger.
func NewAuthService(jwksClient JWKSClientInterface, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger.Named("auth"),
	}
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	var tokenString, tokenSource string

	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		tokenString = cookie.Value
		tokenSource = "cookie"
	} else {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.logger.Debug("No JWT found in request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			return nil, "", ErrMissingAuthorization
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
			s.logger.Debug("Invalid Authorization header format",
				zap.String("path", r.URL.Path))
			return nil, "", ErrInvalidAuthFormat
		}
		tokenString = token
		tokenSource = "header"
	}

	claims, err := s.jwksClient.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, "", err
	}

	return claims, tokenString, nil
}

func (s *authService) RequireProjectID(claims *Claims) error {
	if claims.ProjectID == "" {
		return ErrMissingProjectID
	}
	return nil
}

func (s *authService) ValidateProjectIDMatch(claims *Claims, urlProjectID string) error {
	if urlProjectID != "" && !strings.EqualFold(claims.ProjectID, urlProjectID) {
		s.logger.Warn("Project ID mismatch",
			zap.String("url_project_id", urlProjectID),
			zap.String("token_project_id", claims.ProjectID))
		return ErrProjectIDMismatch
	}
	return nil
}

var _ AuthService = (*authService)(nil)
