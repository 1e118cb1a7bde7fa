package authsig

import (
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"time"
)

// Secrets and markers lifted from the byte-watt web portal. The server
// validates the signature byte-for-byte; order matters.
const (
	secretOne   = "LS885ZYDA95JV"
	secretTwo   = "FQKUIUUUV7PQNODZ"
	secretThree = "RDZIS4ERRED"
	secretFour  = "S0EED8BCWSS"

	prefix = "al8e4s"
	suffix = "ui893ed"
)

// Timestamp returns wall-clock seconds since epoch, the value the
// signature is computed over.
func Timestamp() int64 {
	return time.Now().Unix()
}

// Signature computes the authsignature the byte-watt API expects for the
// given timestamp: sha512 over the concatenated secrets plus the decimal
// timestamp, hex encoded and wrapped in fixed markers.
func Signature(timestamp int64) string {
	payload := secretOne + secretTwo + secretThree + secretFour + strconv.FormatInt(timestamp, 10)
	sum := sha512.Sum512([]byte(payload))
	return prefix + hex.EncodeToString(sum[:]) + suffix
}
