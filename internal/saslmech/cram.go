package saslmech

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
)

// cramMD5Response computes the RFC 2195 CRAM-MD5 response: "username
// hex(hmac-md5(password, challenge))".
func cramMD5Response(username, password string, challenge []byte) []byte {
	mac := hmac.New(md5.New, []byte(password))
	mac.Write(challenge)
	digest := hex.EncodeToString(mac.Sum(nil))
	return []byte(username + " " + digest)
}
