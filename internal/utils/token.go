package utils // package utils provides helpers for service token creation

import (
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ServiceTokenTTL is how long a minted service token stays valid.  Bridges
// mint a fresh token per outbound call, so the window can stay short.
const ServiceTokenTTL = 2 * time.Minute

// NewServiceToken builds and signs an HS256 JWT identifying a calling
// service (a gate or vending machine bridge) to the back-office.  The JWT
// carries the service name in "svc" plus standard exp/iat claims.  Both
// sides share the same secret; there are no per-service credentials.
func NewServiceToken(secret, service string) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "svc": service,
        "exp": now.Add(ServiceTokenTTL).Unix(),
        "iat": now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}
