package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultHost = "http://localhost:8080"
	hostEnvVar  = "SCOUT_HOST"
)

// resolveHost picks the scouthub API base URL: --host when given, then
// SCOUT_HOST, then the local default. Errors name where the bad value came
// from. The result has no trailing slash.
func resolveHost(flagValue string, flagSet bool, getenv func(string) string) (string, error) {
	host, source := flagValue, "--host"
	if !flagSet {
		host, source = defaultHost, "default host"
		if v := strings.TrimSpace(getenv(hostEnvVar)); v != "" {
			host, source = v, hostEnvVar
		}
	}
	host = strings.TrimSpace(host)
	if err := checkHost(host); err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", source, host, err)
	}
	return strings.TrimRight(host, "/"), nil
}

func checkHost(host string) error {
	if host == "" {
		return errors.New("host URL cannot be empty")
	}
	u, err := url.Parse(host)
	if err != nil {
		return err
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return errors.New("scheme must be http or https")
	case u.Host == "":
		return errors.New("missing host")
	case u.Path != "" && u.Path != "/":
		return fmt.Errorf("host must not include a path (scout adds /v1 itself), got %q", u.Path)
	case u.RawQuery != "" || u.Fragment != "":
		return errors.New("host must not include query or fragment")
	}
	return nil
}
