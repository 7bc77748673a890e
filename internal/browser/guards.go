package browser

import (
	"encoding/json"
	"strings"
)

// guardScript runs in every new document before page scripts. It suppresses
// window.open, script-initiated location changes and link clicks that lead
// to a blocked host.
const guardScript = `(() => {
  const blocked = __BLOCKED_HOSTS__;
  const hit = (u) => {
    try {
      const s = String(u && u.href ? u.href : u);
      return blocked.some((h) => s.includes(h));
    } catch (e) {
      return false;
    }
  };

  const open = window.open;
  window.open = function (url, target, features) {
    if (url && hit(url)) {
      console.log('Blocked window.open to ' + url);
      return null;
    }
    return open.call(window, url, target, features);
  };

  if (window.navigation) {
    window.navigation.addEventListener('navigate', (e) => {
      if (e.cancelable && hit(e.destination.url)) {
        e.preventDefault();
        console.log('Blocked location change to ' + e.destination.url);
      }
    });
  }

  try {
    const loc = window.location;
    Object.defineProperty(window, 'location', {
      configurable: true,
      get() { return loc; },
      set(v) {
        if (hit(v)) {
          console.log('Blocked location change to ' + v);
          return;
        }
        loc.href = v;
      },
    });
  } catch (e) {}

  document.addEventListener('click', (e) => {
    for (let t = e.target; t && t !== document; t = t.parentElement) {
      if (t.href && hit(t.href)) {
        e.preventDefault();
        e.stopImmediatePropagation();
        console.log('Blocked click navigation to ' + t.href);
        return;
      }
    }
  }, true);
})();`

// buildGuardScript embeds hosts into the guard script
func buildGuardScript(hosts []string) string {
	list, _ := json.Marshal(normalizeHosts(hosts))
	return strings.Replace(guardScript, "__BLOCKED_HOSTS__", string(list), 1)
}

// urlPattern is the fetch domain pattern that pauses requests for host
func urlPattern(host string) string {
	return "*" + host + "*"
}

// blocked reports whether rawURL points at one of hosts
func blocked(rawURL string, hosts []string) bool {
	u := strings.ToLower(rawURL)
	for _, h := range hosts {
		if h != "" && strings.Contains(u, h) {
			return true
		}
	}
	return false
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
