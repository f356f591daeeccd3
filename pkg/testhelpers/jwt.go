// Package testhelpers provides utilities for testing LaunchReady components.
package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates an unsigned (alg: none) token for use when
// verification is disabled. It carries aud "engine", which validation requires.
func GenerateTestJWT(sub, projectID, email string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s","aud":"engine"`, sub)
	if projectID != "" {
		payload += fmt.Sprintf(`,"pid":"%s"`, projectID)
	}
	if email != "" {
		payload += fmt.Sprintf(`,"email":"%s"`, email)
	}
	payload += "}"

	return header + "." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + "."
}

// GenerateTestJWTWithBearer returns token with "Bearer " prefix for Authorization header.
func GenerateTestJWTWithBearer(sub, projectID, email string) string {
	return "Bearer " + GenerateTestJWT(sub, projectID, email)
}
