package middleware

import (
	"net/url"
	"strings"
)

// sensitiveQueryParams are redacted from request logs
var sensitiveQueryParams = map[string]bool{
	"token": true, "password": true, "secret": true,
	"key": true, "auth": true, "api_key": true,
}

func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	for k := range values {
		if sensitiveQueryParams[strings.ToLower(k)] {
			values.Set(k, "REDACTED")
		}
	}
	return values.Encode()
}
