package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseNodeURL turns one node address into a ClientConfig.
// A bare "host:port" is treated as http. Query string, fragment and path are
// dropped; userinfo is extracted and then overridden field by field by the
// non-empty username/password arguments.
func ParseNodeURL(raw, username, password string) (ClientConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ClientConfig{}, fmt.Errorf("node address must not be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("invalid node address %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ClientConfig{}, fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}

	if u.Hostname() == "" {
		return ClientConfig{}, fmt.Errorf("invalid node address %q: host is required", raw)
	}

	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return ClientConfig{}, fmt.Errorf("invalid node address %q: port %q out of range", raw, p)
		}
	}

	var uriUser, uriPass string
	if u.User != nil {
		uriUser = u.User.Username()
		uriPass, _ = u.User.Password()
	}
	user, pass := resolveCredentials(uriUser, uriPass, username, password)

	base := url.URL{Scheme: u.Scheme, Host: u.Host}
	return ClientConfig{
		BaseURL:  base.String(),
		Username: user,
		Password: pass,
	}, nil
}

// ParseNodeList parses a comma-separated node list. Empty entries are ignored.
func ParseNodeList(list, username, password string) ([]ClientConfig, error) {
	var out []ClientConfig
	for _, raw := range strings.Split(list, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		cfg, err := ParseNodeURL(raw, username, password)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("node list %q contains no addresses", list)
	}
	return out, nil
}

// resolveCredentials applies configured credentials over URI credentials.
// Each field is resolved independently; an empty configured value keeps the URI value.
func resolveCredentials(uriUser, uriPass, cfgUser, cfgPass string) (string, string) {
	user, pass := uriUser, uriPass
	if cfgUser != "" {
		user = cfgUser
	}
	if cfgPass != "" {
		pass = cfgPass
	}
	return user, pass
}
