// Package common contains shared constants, sentinel errors and small helpers
// used across chankeys components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the blobd
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// CannotDecryptPlaceholder replaces the content of a message that failed to
// decrypt while the rest of its batch keeps loading.
const CannotDecryptPlaceholder = "cannot decrypt"
