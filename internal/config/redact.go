package config

import (
	"net/url"
	"strings"
)

// keywordPassword is the password key of a libpq keyword/value DSN.
const keywordPassword = "password="

// RedactURL masks the password of a PostgreSQL connection string, in URL or
// keyword/value form, with "***". SQLite file paths, strings without a
// password and unparseable URLs are returned unchanged.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") {
		return redactKeywordDSN(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	// Replace the password portion of the userinfo between "://" and "@".
	afterScheme := strings.Index(raw, "://") + len("://")

	atIdx := strings.LastIndex(raw[afterScheme:], "@")
	if atIdx < 0 {
		return raw
	}

	userinfo := raw[afterScheme : afterScheme+atIdx]

	colonIdx := strings.Index(userinfo, ":")
	if colonIdx < 0 {
		return raw
	}

	return raw[:afterScheme] + userinfo[:colonIdx+1] + "***" + raw[afterScheme+atIdx:]
}

// redactKeywordDSN masks the value of a password= field such as
// "host=db user=app password=secret".
func redactKeywordDSN(raw string) string {
	fields := strings.Fields(raw)
	changed := false

	for i, f := range fields {
		if strings.HasPrefix(f, keywordPassword) {
			fields[i] = keywordPassword + "***"
			changed = true
		}
	}

	if !changed {
		return raw
	}

	return strings.Join(fields, " ")
}
