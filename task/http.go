package task

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nuntium/mmsengine/connman"
	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/mmserr"
	"github.com/nuntium/mmsengine/transfer"
)

// ConnectionPreference selects which kind of bearer an HTTP task asks
// the dispatcher for.
type ConnectionPreference int

const (
	ConnectionAuto ConnectionPreference = iota
	ConnectionUser
)

// HTTPResult is what an HTTP task reports to its subclass on
// completion of a transfer.
type HTTPResult struct {
	StatusCode int
	BodyPath   string // populated on success when a response file was requested
	Retry      bool   // transport-level failure, worth retrying subject to deadline
	Err        error
}

// HTTPDone is implemented by a concrete transaction task to receive
// the outcome of its HTTP transfer.
type HTTPDone interface {
	HTTPDone(result HTTPResult)
}

// HTTP extends Base with a streaming request/response transfer bound
// to a dispatcher-supplied bearer connection, grounded on the HTTP
// POST/GET choreography of the reference's mms_task_http.c.
type HTTP struct {
	Base

	log        logger.Logger
	transfers  transfer.List
	done       HTTPDone
	preference ConnectionPreference

	url          string // empty defaults to the connection's MMSC URL
	requestPath  string // non-empty => POST; empty => GET
	responsePath string
	userAgent    string
	uaProf       string

	cancel context.CancelFunc
}

// NewHTTP builds an HTTP task. requestPath may be empty for a GET.
func NewHTTP(base Base, log logger.Logger, transfers transfer.List, done HTTPDone, pref ConnectionPreference, targetURL, requestPath, responsePath, userAgent, uaProf string) *HTTP {
	if log == nil {
		log = logger.Nop
	}
	return &HTTP{
		Base:         base,
		log:          log.With("http"),
		transfers:    transfers,
		done:         done,
		preference:   pref,
		url:          targetURL,
		requestPath:  requestPath,
		responsePath: responsePath,
		userAgent:    userAgent,
		uaProf:       uaProf,
	}
}

// Run asks the dispatcher for a connection; the task itself never
// blocks waiting for one.
func (h *HTTP) Run() {
	h.GoNeedConnection(h.preference == ConnectionUser)
}

// Transmit performs the HTTP transfer over conn, which must be a
// connman.Connection matching this task's IMSI and already Open.
func (h *HTTP) Transmit(connAny any) {
	conn, ok := connAny.(connman.Connection)
	if !ok {
		h.finish(HTTPResult{Err: fmt.Errorf("task: transmit called with non-connection value")})
		return
	}
	h.GoTransmitting()

	targetURL := h.url
	if targetURL == "" {
		targetURL = conn.MMSCURL()
	}

	ctx, cancel := context.WithDeadline(context.Background(), h.Deadline())
	h.cancel = cancel
	defer cancel()

	client, err := h.clientFor(conn)
	if err != nil {
		h.finish(HTTPResult{Err: mmserr.Unavailable(err), Retry: true})
		return
	}

	method := http.MethodGet
	var bodyReader io.ReadCloser
	var contentLength int64 = -1
	if h.requestPath != "" {
		method = http.MethodPost
		f, err := os.Open(h.requestPath)
		if err != nil {
			h.finish(HTTPResult{Err: fmt.Errorf("task: opening request body: %w", err)})
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err == nil {
			contentLength = info.Size()
		}
		bodyReader = f
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		h.finish(HTTPResult{Err: fmt.Errorf("task: building request: %w", err)})
		return
	}
	req.Close = true
	req.Header.Set("Connection", "close")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	if h.uaProf != "" {
		req.Header.Set("x-wap-profile", h.uaProf)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", mms.MMSContentType)
		if contentLength >= 0 {
			req.ContentLength = contentLength
		}
	}

	typ := transfer.TypeReceive
	if method == http.MethodPost {
		typ = transfer.TypeSend
	}
	if h.transfers != nil {
		h.transfers.TransferStarted(h.ID(), typ)
		defer h.transfers.TransferFinished(h.ID(), typ)
	}

	resp, err := client.Do(req)
	if err != nil {
		h.log.Warn("%s %s failed: %v", method, targetURL, err)
		h.finish(HTTPResult{Retry: true, Err: mmserr.Unavailable(err)})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.finish(HTTPResult{StatusCode: resp.StatusCode, Err: fmt.Errorf("task: unexpected status %d", resp.StatusCode)})
		return
	}

	if h.responsePath == "" {
		io.Copy(io.Discard, resp.Body)
		h.finish(HTTPResult{StatusCode: resp.StatusCode})
		return
	}

	out, err := os.Create(h.responsePath)
	if err != nil {
		h.finish(HTTPResult{Err: fmt.Errorf("task: creating response file: %w", err)})
		return
	}
	defer out.Close()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	var received int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				h.finish(HTTPResult{Err: fmt.Errorf("task: writing response: %w", werr)})
				return
			}
			received += int64(n)
			if h.transfers != nil {
				h.transfers.ReceiveProgress(h.ID(), typ, received, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			h.finish(HTTPResult{Retry: true, Err: mmserr.Unavailable(rerr)})
			return
		}
	}
	h.finish(HTTPResult{StatusCode: resp.StatusCode, BodyPath: h.responsePath})
}

func (h *HTTP) finish(result HTTPResult) {
	if result.Retry && !h.Deadline().IsZero() {
		h.Retry(time.Now())
	} else {
		h.GoDone()
	}
	if h.done != nil {
		h.done.HTTPDone(result)
	}
}

// NetworkUnavailable is called by the dispatcher when no bearer could
// be obtained for this task's IMSI.
func (h *HTTP) NetworkUnavailable() {
	h.finish(HTTPResult{Retry: true, Err: mmserr.Unavailable(fmt.Errorf("task: no bearer connection available"))})
}

// Cancel aborts any in-flight HTTP transfer in addition to the base
// cancellation behaviour.
func (h *HTTP) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
	h.Base.Cancel()
}

func (h *HTTP) clientFor(conn connman.Connection) (*http.Client, error) {
	transport := &http.Transport{}
	if netif := conn.NetIf(); netif != "" {
		dialer := &net.Dialer{}
		iface, err := net.InterfaceByName(netif)
		if err == nil {
			addrs, _ := iface.Addrs()
			if len(addrs) > 0 {
				if ipnet, ok := addrs[0].(*net.IPNet); ok {
					dialer.LocalAddr = &net.TCPAddr{IP: ipnet.IP}
				}
			}
		}
		transport.DialContext = dialer.DialContext
	}
	if hostport := conn.ProxyHostPort(); hostport != "" {
		proxyURL, err := url.Parse("http://" + normalizeProxyHostPort(hostport))
		if err != nil {
			return nil, fmt.Errorf("task: invalid proxy %q: %w", hostport, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Transport: transport}, nil
}

// normalizeProxyHostPort strips leading zeros from each dotted-quad
// octet of hostport's host component (e.g. "192.168.094.023:80" ->
// "192.168.94.23:80"), since Go's net/url would otherwise never
// misinterpret them as octal but a server-side proxy config copied
// from the reference might carry them.
func normalizeProxyHostPort(hostport string) string {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
		port = ""
	}
	octets := strings.Split(host, ".")
	if len(octets) == 4 {
		for i, o := range octets {
			trimmed := strings.TrimLeft(o, "0")
			if trimmed == "" {
				trimmed = "0"
			}
			octets[i] = trimmed
		}
		host = strings.Join(octets, ".")
	}
	if port == "" {
		return host
	}
	return net.JoinHostPort(host, port)
}

// writeFile saves raw under path, creating any parent directory that
// doesn't yet exist.
func writeFile(path string, raw []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0o644)
}
