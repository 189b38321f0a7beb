package signup

import (
	"net/url"
	"strings"
)

// RedirectParam is the query parameter that threads the destination through
// each hop of a redirect chain.
const RedirectParam = "next"

// CollapseRedirectChain folds an ordered sequence of hops into a single URL
// by nesting each following hop as a query parameter of the one before it:
// the chain [a, b, c] becomes a?next=(b?next=c), with encoding applied at
// every level. Browsers then traverse the hops in order, ending on the last.
func CollapseRedirectChain(chain []string, param string) string {
	if len(chain) == 0 {
		return ""
	}
	if param == "" {
		param = RedirectParam
	}
	redirectTo := chain[len(chain)-1]
	for i := len(chain) - 2; i >= 0; i-- {
		hop := chain[i]
		sep := "?"
		if strings.Contains(hop, "?") {
			sep = "&"
		}
		redirectTo = hop + sep + url.Values{param: {redirectTo}}.Encode()
	}
	return redirectTo
}
