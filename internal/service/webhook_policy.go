package service

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/checkout-widget/internal/config"

	"github.com/samber/lo"
)

const (
	webhookDialTimeout  = 10 * time.Second
	webhookMaxRedirects = 5
)

// 运营商级 NAT 地址段，netip 不将其视为私有地址
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// WebhookPolicy 限制 webhook 可访问的目标
type WebhookPolicy struct {
	hostPatterns []*regexp.Regexp
	allowPrivate bool
}

// NewWebhookPolicy 根据配置编译主机白名单
func NewWebhookPolicy(cfg config.WebhookConfig) *WebhookPolicy {
	hosts := lo.Uniq(lo.Compact(lo.Map(cfg.AllowedHosts, func(host string, _ int) string {
		return strings.ToLower(strings.TrimSpace(host))
	})))
	patterns := make([]*regexp.Regexp, 0, len(hosts))
	for _, host := range hosts {
		// *.example.com -> ^.*\.example\.com$
		pattern := "^" + strings.ReplaceAll(regexp.QuoteMeta(host), `\*`, ".*") + "$"
		patterns = append(patterns, regexp.MustCompile(pattern))
	}
	return &WebhookPolicy{hostPatterns: patterns, allowPrivate: cfg.AllowPrivateNetworks}
}

// CheckURL 校验 webhook 地址的协议与主机名
func (p *WebhookPolicy) CheckURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookNotAllowed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrWebhookNotAllowed, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrWebhookNotAllowed)
	}
	if len(p.hostPatterns) == 0 {
		return nil
	}
	for _, re := range p.hostPatterns {
		if re.MatchString(host) {
			return nil
		}
	}
	return fmt.Errorf("%w: host %s not in allowlist", ErrWebhookNotAllowed, host)
}

// HTTPClient 返回在建连与重定向时执行该策略的客户端
func (p *WebhookPolicy) HTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   webhookDialTimeout,
		KeepAlive: 30 * time.Second,
		Control:   p.control,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// 代理会绕过建连时的地址检查
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= webhookMaxRedirects {
				return errors.New("too many webhook redirects")
			}
			return p.CheckURL(req.URL.String())
		},
	}
}

// control 在 DNS 解析之后检查实际连接的地址
func (p *WebhookPolicy) control(_, address string, _ syscall.RawConn) error {
	if p.allowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookNotAllowed, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookNotAllowed, err)
	}
	if isInternalAddr(addr.Unmap()) {
		return fmt.Errorf("%w: address %s", ErrWebhookNotAllowed, addr)
	}
	return nil
}

func isInternalAddr(addr netip.Addr) bool {
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() ||
		sharedAddressSpace.Contains(addr)
}
