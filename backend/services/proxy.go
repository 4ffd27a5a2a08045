// ABOUTME: SSH+SOCKS5 jumpbox transport for reaching a private model server
// ABOUTME: Parses ssh+socks5://user@host:port?private-key=/path URLs

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"
)

// jumpbox is a parsed MODEL_SERVER_ALL_PROXY value
type jumpbox struct {
	user    string
	host    string
	keyPath string
}

func parseJumpbox(raw string) (jumpbox, error) {
	u, err := url.Parse(strings.TrimPrefix(raw, "ssh+"))
	if err != nil {
		return jumpbox{}, fmt.Errorf("invalid jumpbox URL: %w", err)
	}
	if u.Scheme != "socks5" {
		return jumpbox{}, fmt.Errorf("unsupported jumpbox scheme %q, expected ssh+socks5", u.Scheme)
	}
	if u.Host == "" {
		return jumpbox{}, errors.New("jumpbox URL has no host")
	}

	keyPath := u.Query().Get("private-key")
	if keyPath == "" {
		return jumpbox{}, errors.New("jumpbox URL is missing the private-key parameter")
	}
	keyPath, err = ValidateSSHKeyPath(keyPath)
	if err != nil {
		return jumpbox{}, err
	}

	jb := jumpbox{host: u.Host, keyPath: keyPath}
	if u.User != nil {
		jb.user = u.User.Username()
	}
	return jb, nil
}

// jumpboxDialer returns a DialContext that tunnels through the jumpbox in
// raw. The SSH tunnel is opened on the first dial and reused afterwards; a
// failed open is retried on the next dial.
func jumpboxDialer(raw string) (func(ctx context.Context, network, address string) (net.Conn, error), error) {
	jb, err := parseJumpbox(raw)
	if err != nil {
		return nil, err
	}
	key, err := os.ReadFile(jb.keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading jumpbox key: %w", err)
	}

	socks := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), time.Minute)
	var (
		mu   sync.Mutex
		dial proxy.DialFunc
	)
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mu.Lock()
		if dial == nil {
			d, err := socks.Dialer(jb.user, string(key), jb.host)
			if err != nil {
				mu.Unlock()
				return nil, fmt.Errorf("opening jumpbox tunnel to %s: %w", jb.host, err)
			}
			dial = d
		}
		d := dial
		mu.Unlock()
		return d(network, address)
	}, nil
}
