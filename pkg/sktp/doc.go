// Package sktp decodes responses of the SKTP screen/download protocol.
//
// A response is a single HTTP body whose first byte tags its kind:
//
//	0  clear the rendered screen
//	1  screen chunks follow (literal text or run-length fills)
//	2  pointer to a binary download (URL, file name, save flag)
//
// Other tags are treated like 1. Every offset is checked against the
// declared response length; malformed responses are rejected with an error
// wrapping ErrTruncated or one of the more specific sentinels below.
package sktp
