// Package uri parses MySQL connection strings of the form
// [scheme://][user[:pwd]@]host[:port][/schema][?option=value&…] and
// produces the canonical password-stripped display form used by session
// representations.
package uri

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

// Default ports per protocol family.
const (
	DefaultClassicPort = 3306
	DefaultXPort       = 33060
)

// Scheme names recognised in the connection string.
const (
	SchemeMySQL  = "mysql"  // classic protocol
	SchemeMySQLX = "mysqlx" // X protocol
)

// Connection holds the parsed pieces of a connection string.
type Connection struct {
	Scheme        string
	User          string
	Password      string
	PasswordFound bool
	Host          string
	Port          int
	Socket        string
	Schema        string
	SSLKey        string
	SSLCert       string
	SSLCA         string
}

func parseError(format string, args ...any) error {
	return errs.Newf(errs.KindURIParse, "", format, args...)
}

// Parse parses a connection string. The port defaults to 0 here; callers
// apply DefaultClassicPort or DefaultXPort via EffectivePort depending on
// the session family they are opening.
func Parse(text string) (*Connection, error) {
	c := &Connection{}
	rest := text

	if i := strings.Index(rest, "://"); i >= 0 {
		c.Scheme = rest[:i]
		rest = rest[i+3:]
		if c.Scheme != SchemeMySQL && c.Scheme != SchemeMySQLX {
			return nil, parseError("Invalid connection string scheme: %s", c.Scheme)
		}
	}

	// Credentials are everything before the last '@' so passwords may
	// contain '@' when percent-encoded (and raw, for compatibility).
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		cred := rest[:i]
		rest = rest[i+1:]
		if j := strings.Index(cred, ":"); j >= 0 {
			c.User = cred[:j]
			pwd, err := url.QueryUnescape(cred[j+1:])
			if err != nil {
				return nil, parseError("Invalid percent encoding in password")
			}
			c.Password = pwd
			c.PasswordFound = true
		} else {
			c.User = cred
		}
		if c.User == "" {
			return nil, parseError("Missing user name in connection string: %s", text)
		}
	}

	var query string
	if i := strings.Index(rest, "?"); i >= 0 {
		query = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		c.Schema = rest[i+1:]
		rest = rest[:i]
	}

	host := rest
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		if end < 0 {
			return nil, parseError("Unterminated [ in address: %s", text)
		}
		c.Host = host[1:end]
		host = host[end+1:]
		if host != "" {
			if !strings.HasPrefix(host, ":") {
				return nil, parseError("Invalid address: %s", text)
			}
			port, err := parsePort(host[1:])
			if err != nil {
				return nil, err
			}
			c.Port = port
		}
	} else if i := strings.LastIndex(host, ":"); i >= 0 {
		port, err := parsePort(host[i+1:])
		if err != nil {
			return nil, err
		}
		c.Host = host[:i]
		c.Port = port
	} else {
		c.Host = host
	}

	if c.Host == "" && query == "" {
		return nil, parseError("Missing host in connection string: %s", text)
	}

	if err := c.applyOptions(query); err != nil {
		return nil, err
	}
	return c, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return 0, parseError("Invalid port: %s", s)
	}
	return port, nil
}

func (c *Connection) applyOptions(query string) error {
	if query == "" {
		return nil
	}
	for _, kv := range strings.Split(query, "&") {
		if kv == "" {
			continue
		}
		key, value, _ := strings.Cut(kv, "=")
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			return parseError("Invalid percent encoding in option %s", key)
		}
		switch key {
		case "socket":
			c.Socket = decoded
		case "ssl-key", "ssl_key":
			c.SSLKey = decoded
		case "ssl-cert", "ssl_cert":
			c.SSLCert = decoded
		case "ssl-ca", "ssl_ca":
			c.SSLCA = decoded
		default:
			return parseError("Unknown option in connection string: %s", key)
		}
	}
	return nil
}

// EffectivePort resolves the port, applying the family default when the
// connection string did not name one.
func (c *Connection) EffectivePort(xprotocol bool) int {
	if c.Port != 0 {
		return c.Port
	}
	if xprotocol {
		return DefaultXPort
	}
	return DefaultClassicPort
}

// Display renders the canonical password-stripped form user@host:port used
// in session representations and logs.
func (c *Connection) Display(xprotocol bool) string {
	var sb strings.Builder
	if c.User != "" {
		sb.WriteString(c.User)
		sb.WriteByte('@')
	}
	if strings.Contains(c.Host, ":") {
		fmt.Fprintf(&sb, "[%s]", c.Host)
	} else {
		sb.WriteString(c.Host)
	}
	fmt.Fprintf(&sb, ":%d", c.EffectivePort(xprotocol))
	if c.Schema != "" {
		sb.WriteByte('/')
		sb.WriteString(c.Schema)
	}
	return sb.String()
}

// StripPassword removes the password from a raw connection string without
// otherwise normalising it.
func StripPassword(text string) string {
	at := strings.LastIndex(text, "@")
	if at < 0 {
		return text
	}
	head := text[:at]
	start := 0
	if i := strings.Index(head, "://"); i >= 0 {
		start = i + 3
	}
	if j := strings.Index(head[start:], ":"); j >= 0 {
		head = head[:start+j]
	}
	return head + text[at:]
}
