package utils

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
)

const (
	ERROR_LIST_NOT_FOUND       = "MailChimpList[%s] not found"
	ERROR_MEMBER_NOT_FOUND     = "MailChimpListMember[%s] not found"
	ERROR_LIST_NOT_SYNCED      = "MailChimpList[%s] has no MailChimp id yet"
	ERROR_INVALID_DATA         = "Invalid data given"
	ERROR_INVALID_ID           = "Invalid id %s"
	ERROR_UNSUPPORTED_DB       = "Unsupported database driver %s"
	ERROR_LOCK_NOT_ACQUIRED    = "Could not acquire lock %s"
	ERROR_NODE_NOT_INITIALIZED = "Snowflake node not initialized"
)

func NewError(template string, args ...any) error {
	if countFormats(template) != len(args) {
		return errors.New("Error: No information available - error generating message")
	}
	return errors.New(fmt.Sprintf(template, args...))
}

var FORMAT_REGEX = regexp.MustCompile(`%[dfsuXxobegtvq]`)

func countFormats(format string) int {
	return len(FORMAT_REGEX.FindAllString(format, -1))
}

func Assert(statement string, conditions ...bool) {
	for i, condition := range conditions {
		if !condition {
			panic(fmt.Sprintf("Assert failed: %s (condition #%d)", statement, i+1))
		}
	}
}

// Getenv returns the value of key or fallback when it is unset or empty.
func Getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && len(v) > 0 {
		return v
	}
	return fallback
}

// ToSnake rewrites a camelCase name to lower-case underscore form.
// "phoneNumber" -> "phone_number", "address1" -> "address1".
func ToSnake(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
