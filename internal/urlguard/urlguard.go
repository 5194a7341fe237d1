// Package urlguard решает, можно ли отдавать URL из поисковой выдачи наружу.
//
// Классификация чисто текстовая: DNS не резолвим, смотрим на хост как он записан в URL.
// Всё, что не распарсилось, считаем небезопасным.
package urlguard

import (
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	"github.com/kitbuilder587/websearch/internal/search"
)

const (
	MetadataHost = "metadata.google.internal"
	MetadataIP   = "169.254.169.254"
)

var blockedHosts = map[string]bool{
	"localhost":  true,
	"127.0.0.1":  true,
	"::1":        true,
	"0.0.0.0":    true,
	MetadataHost: true,
	MetadataIP:   true,
}

// reservedV4 - loopback, RFC1918, link-local, "this network", CGNAT, benchmark.
var reservedV4 = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

var (
	ipv4Compatible = netip.MustParsePrefix("::/96")
	nat64          = netip.MustParsePrefix("64:ff9b::/96")
)

// UTS-46 маппинг: fullwidth цифры, идеографические точки и т.п. -> ASCII.
// STD3 не включаем, иначе отвалятся хосты с '_'.
var hostProfile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false))

// IsPrivate - true, если URL нельзя отдавать вызывающему:
// не http(s), приватный/loopback/link-local/metadata хост или мусор вместо URL.
// Никогда не паникует.
func IsPrivate(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return true
	}

	return IsPrivateHost(u.Hostname())
}

// IsPrivateHost классифицирует голый хост (без схемы и порта).
func IsPrivateHost(host string) bool {
	host, ok := normalizeHost(host)
	if !ok {
		return true
	}

	if blockedHosts[host] {
		return true
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return isReservedAddr(addr)
	}

	return isReservedNumericHost(host)
}

// Filter возвращает подпоследовательность results без небезопасных URL.
// Порядок сохраняется, сами результаты не меняются.
func Filter(results []search.Result) []search.Result {
	out := make([]search.Result, 0, len(results))
	for _, r := range results {
		if IsPrivate(r.URL) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func normalizeHost(host string) (string, bool) {
	host = strings.TrimSuffix(strings.ToLower(strings.Trim(host, "[]")), ".")
	if host == "" {
		return "", false
	}

	if !isASCII(host) {
		mapped, err := hostProfile.ToASCII(host)
		if err != nil {
			return "", false
		}
		host = strings.TrimSuffix(strings.ToLower(mapped), ".")
		if host == "" {
			return "", false
		}
	}

	return host, true
}

func isReservedAddr(addr netip.Addr) bool {
	addr = addr.WithZone("")

	if addr.Is4() {
		return isReservedV4(addr)
	}
	// ::ffff:a.b.c.d и ::ffff:xxxx:xxxx
	if addr.Is4In6() {
		return isReservedV4(addr.Unmap())
	}

	if addr.IsLoopback() || addr.IsUnspecified() || addr.IsPrivate() || addr.IsLinkLocalUnicast() {
		return true
	}

	// устаревший IPv4-compatible ::a.b.c.d и NAT64 64:ff9b::a.b.c.d
	if ipv4Compatible.Contains(addr) || nat64.Contains(addr) {
		b := addr.As16()
		return isReservedV4(netip.AddrFrom4([4]byte{b[12], b[13], b[14], b[15]}))
	}
	return false
}

func isReservedV4(addr netip.Addr) bool {
	if blockedHosts[addr.String()] {
		return true
	}
	for _, p := range reservedV4 {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// isReservedNumericHost ловит обфусцированные формы IPv4: 2130706433, 0x7f000001,
// 127.1, 0177.0.0.1, 0x7f.0.0.1. Ведущий ноль трактуем и как octal, и как decimal -
// разные парсеры читают его по-разному, блокируем если хоть одно прочтение приватное.
func isReservedNumericHost(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return false
	}
	for _, p := range parts {
		if !isNumericPart(p) {
			return false
		}
	}

	for _, octal := range []bool{true, false} {
		addr, ok := parseIPv4Parts(parts, octal)
		if !ok {
			// цифры есть, а адрес не собрался (переполнение) - публичным такой хост быть не может
			return true
		}
		if isReservedV4(addr) {
			return true
		}
	}
	return false
}

func isNumericPart(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "0x") {
		p = p[2:]
		if p == "" {
			// "0x" браузеры читают как 0
			return true
		}
		for _, c := range p {
			if !isHexDigit(c) {
				return false
			}
		}
		return true
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parseIPv4Parts - inet_aton: a, a.b (b 24 бита), a.b.c (c 16 бит), a.b.c.d.
func parseIPv4Parts(parts []string, octal bool) (netip.Addr, bool) {
	vals := make([]uint64, len(parts))
	for i, p := range parts {
		v, ok := parseIPv4Part(p, octal)
		if !ok {
			return netip.Addr{}, false
		}
		vals[i] = v
	}

	last := len(vals) - 1
	for _, v := range vals[:last] {
		if v > 0xff {
			return netip.Addr{}, false
		}
	}
	if vals[last] >= 1<<(8*(4-last)) {
		return netip.Addr{}, false
	}

	var n uint64
	for i, v := range vals[:last] {
		n |= v << (8 * (3 - i))
	}
	n |= vals[last]

	return netip.AddrFrom4([4]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}), true
}

func parseIPv4Part(p string, octal bool) (uint64, bool) {
	base := 10
	switch {
	case strings.HasPrefix(p, "0x"):
		p, base = p[2:], 16
		if p == "" {
			return 0, true
		}
	case octal && len(p) > 1 && p[0] == '0':
		p, base = p[1:], 8
	}

	v, err := strconv.ParseUint(p, base, 32)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
