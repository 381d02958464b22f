package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const QueryTimeLayout = "2006-01-02 15:04:05"

var ErrInvalidTime = errors.New("invalid time")

// FormatQueryTime 把 datetime-local (YYYY-MM-DDTHH:MM) 等格式转成 YYYY-MM-DD HH:MM:SS
// 空字符串原样返回
func FormatQueryTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(QueryTimeLayout), nil
	}
	local := strings.Replace(s, "T", " ", 1)
	for _, layout := range []string{QueryTimeLayout, "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, local); err == nil {
			return t.Format(QueryTimeLayout), nil
		}
	}
	return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidTime, s)
}
