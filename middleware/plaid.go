package middleware

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"income-bridge/api/config"
	"income-bridge/api/logger"
	"income-bridge/api/plaidclient"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/plaid/plaid-go/v20/plaid"
	"go.uber.org/zap"
)

// PlaidWebhookVerifier ensures incoming Plaid webhooks are authentic by
// checking the ES256 JWT in the Plaid-Verification header against Plaid's
// published verification key. The key is cached per kid.
func PlaidWebhookVerifier(cfg *config.Config) gin.HandlerFunc {
	var cachedKey *plaid.JWKPublicKey

	return func(c *gin.Context) {
		// Read and restore body for the handler
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Get().Error("failed to read request body", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		tokenString := c.GetHeader("Plaid-Verification")
		if tokenString == "" {
			logger.Get().Error("missing Plaid-Verification header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing Plaid-Verification header"})
			c.Abort()
			return
		}

		// Parse token header without verifying to get the key id
		token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
		if err != nil {
			logger.Get().Error("failed to parse JWT", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT"})
			c.Abort()
			return
		}

		if token.Method.Alg() != "ES256" {
			logger.Get().Error("unexpected JWT signing algorithm",
				zap.String("alg", token.Method.Alg()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unexpected signing algorithm"})
			c.Abort()
			return
		}

		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			logger.Get().Error("missing kid in JWT header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing key ID"})
			c.Abort()
			return
		}

		if cachedKey == nil || cachedKey.Kid != kid {
			key, fetchErr := fetchVerificationKey(c.Request.Context(), cfg, kid)
			if fetchErr != nil {
				logger.Get().Error("failed to fetch verification key", zap.Error(fetchErr))
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to fetch verification key"})
				c.Abort()
				return
			}
			cachedKey = &key
		}

		pubKey, err := buildPublicKey(cachedKey)
		if err != nil {
			logger.Get().Error("failed to construct public key", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid public key"})
			c.Abort()
			return
		}

		_, err = jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return pubKey, nil
		})
		if err != nil {
			logger.Get().Error("JWT verification failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// fetchVerificationKey retrieves the webhook public key from Plaid.
func fetchVerificationKey(ctx context.Context, cfg *config.Config, kid string) (plaid.JWKPublicKey, error) {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.PlaidClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.PlaidSecret)
	configuration.UseEnvironment(plaidclient.Environment(cfg.PlaidEnv))

	client := plaid.NewAPIClient(configuration)

	req := plaid.NewWebhookVerificationKeyGetRequest(kid)
	resp, _, err := client.PlaidApi.WebhookVerificationKeyGet(ctx).
		WebhookVerificationKeyGetRequest(*req).Execute()
	if err != nil {
		return plaid.JWKPublicKey{}, err
	}

	return resp.GetKey(), nil
}

// buildPublicKey constructs an ECDSA public key from a JWK
func buildPublicKey(jwk *plaid.JWKPublicKey) (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("invalid X coordinate: %w", err)
	}

	yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("invalid Y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
