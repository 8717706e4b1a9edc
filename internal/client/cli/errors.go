package cli

import (
	"errors"

	"github.com/dmitrijs2005/chankeys/internal/channelkeys"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/identity"
)

// describe turns a command error into the line shown to the user.
func describe(err error) string {
	var hint string
	switch {
	case errors.Is(err, identity.ErrPassphraseRequired):
		hint = "your private key is sealed, rerun with -P or set " + PassphraseEnv
	case errors.Is(err, common.ErrIdentityUnavailable):
		hint = "identity keys missing, run " + highlight("chankeys identity init")
	case errors.Is(err, common.ErrKeyNotFound):
		hint = "no access to this channel"
	case errors.Is(err, channelkeys.ErrChannelKeyExists):
		hint = "this channel already has a key"
	case errors.Is(err, common.ErrStoreUnavailable):
		hint = "key store unavailable"
	case errors.Is(err, common.ErrDecryptionFailed):
		hint = "decryption failed"
	case errors.Is(err, common.ErrInvalidKeyFormat):
		hint = "malformed key"
	default:
		return err.Error()
	}
	return hint + "\n  " + err.Error()
}
