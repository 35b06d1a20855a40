package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"strings"
)

// POP request signing, as required by the Aliyun RPC-style API.
// The algorithm must match the vendor byte-for-byte:
//
//  1. Sort parameter keys lexicographically (byte order).
//  2. Percent-encode keys and values with popEncode (stricter than the usual
//     query encoder).
//  3. Join as key=value pairs with "&" into a canonicalized query string.
//  4. String-to-sign = METHOD & popEncode("/") & popEncode(canonicalized).
//  5. HMAC-SHA1 keyed with secret+"&", base64 the digest.
//
// signPOP is pure: identical inputs always produce identical output. The
// caller is responsible for refusing to sign with an empty secret.
func signPOP(method string, params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var canon strings.Builder
	for i, k := range keys {
		if i > 0 {
			canon.WriteByte('&')
		}
		canon.WriteString(popEncode(k))
		canon.WriteByte('=')
		canon.WriteString(popEncode(params[k]))
	}

	stringToSign := method + "&" + popEncode("/") + "&" + popEncode(canon.String())

	mac := hmac.New(sha1.New, []byte(secret+"&"))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// popEncode percent-encodes per the vendor signing rules: RFC 3986 unreserved
// characters stay literal, everything else is %XX with uppercase hex. Unlike
// the common query encoder this escapes '!', '\'', '(', ')' and '*', and
// encodes space as %20 rather than '+'.
func popEncode(s string) string {
	const upperhex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}
	return b.String()
}
