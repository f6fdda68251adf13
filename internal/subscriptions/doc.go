// Package subscriptions reads and rewrites the ytdl-sub subscription
// manifest. The manifest is manipulated at the YAML node level so key order
// survives a round trip and untouched entries are preserved byte-for-byte
// in meaning.
package subscriptions
