package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// CallbackURL derives the peer endpoint for action from its advertised
// callback URI:
//   - a path containing /ondc/src is kept as-is
//   - otherwise every /ondc path segment prefix is removed
//   - the path always ends in "/" before the action name is appended
//
// Only the path is rewritten, so hosts like ondc.org are left intact.
func CallbackURL(base string, action protocol.Action) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse callback uri: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("callback uri %q is not absolute", base)
	}

	path := u.Path
	if !strings.Contains(path, "/ondc/src") {
		path = strings.ReplaceAll(path, "/ondc", "")
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	u.Path = path + string(action)
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
