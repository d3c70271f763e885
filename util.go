package mpedit

import (
	"encoding/hex"
	"log/slog"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

func hexAttr(key string, b []byte) slog.Attr {
	const maxLen = 256
	if len(b) > maxLen {
		return slog.Group(key, slog.Int("len", len(b)), slog.String("head", hexstr(b[:maxLen])))
	}
	return slog.String(key, hexstr(b))
}
