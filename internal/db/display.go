package db

import (
	"net/url"
	"strings"
)

// maskUser reduces a username to its first two characters followed by "***".
func maskUser(user string) string {
	if len(user) > 2 {
		user = user[:2]
	}
	return user + "***"
}

// redactURL renders a URL-form connection string with the username masked and
// the password removed. On parse failure it falls back to "<engine>://***".
func redactURL(engine, conn string) string {
	u, err := url.Parse(conn)
	if err != nil || u.Host == "" {
		return engine + "://***"
	}

	display := u.Scheme + "://"
	if u.User != nil && u.User.Username() != "" {
		display += maskUser(u.User.Username()) + "@"
	}
	display += u.Host
	if u.Path != "" && u.Path != "/" {
		display += u.Path
	}
	return display
}

// redactMySQLDSN renders a go-sql-driver DSN (user:pass@tcp(host:port)/db)
// with credentials redacted.
func redactMySQLDSN(conn string) string {
	at := strings.LastIndex(conn, "@")
	if at < 0 {
		return EngineMySQL + "://***"
	}
	cred, rest := conn[:at], conn[at+1:]
	if q := strings.Index(rest, "?"); q >= 0 {
		rest = rest[:q]
	}
	user := cred
	if colon := strings.Index(cred, ":"); colon >= 0 {
		user = cred[:colon]
	}
	if user == "" {
		return EngineMySQL + "://***"
	}
	return maskUser(user) + "@" + rest
}
