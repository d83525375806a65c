package utils

import "strconv"

// StrToInt64 parses a base-10 integer from s.
func StrToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
