package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
)

const actorKey = "actor"

// Claims is the JWT payload identifying the caller
type Claims struct {
	UserID int64       `json:"uid"`
	Role   entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for actor
func (tm *TokenManager) Issue(actor entity.Actor) (string, error) {
	now := tm.now()
	claims := &Claims{
		UserID: actor.UserID,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   fmt.Sprintf("%d", actor.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Parse verifies a token and returns the actor it names
func (tm *TokenManager) Parse(raw string) (entity.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return entity.Actor{}, err
	}
	if claims.UserID <= 0 || !claims.Role.IsValid() {
		return entity.Actor{}, errors.New("token carries no valid user")
	}
	return entity.Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

// authMiddleware resolves the bearer token into an entity.Actor
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(c, apperror.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}

		actor, err := s.tokens.Parse(raw)
		if err != nil {
			s.logger.Info("Rejected token", "error", err, "path", c.Request.URL.Path)
			writeError(c, apperror.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// requireRole rejects callers whose role is not listed
func requireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}

		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = r.String()
		}
		writeError(c, apperror.Forbidden("requires role %s", strings.Join(names, " or ")))
		c.Abort()
	}
}

func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}
