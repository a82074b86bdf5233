// Command mmsd runs the dispatcher event loop standalone. It wires a
// logging Handler and a ConnMan that opens the host's default route as
// its single bearer, useful for local exercise and smoke-testing the
// library; a production deployment supplies its own Handler/ConnMan
// backed by the platform's message store and modem stack.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nuntium/mmsengine/attachment"
	"github.com/nuntium/mmsengine/config"
	"github.com/nuntium/mmsengine/connman"
	"github.com/nuntium/mmsengine/dispatcher"
	"github.com/nuntium/mmsengine/housekeeping"
	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
	"github.com/nuntium/mmsengine/task"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "send" {
		runSend(os.Args[2:])
		return
	}

	root := flag.String("root", "/var/lib/mmsd", "state directory (msg/, attic/)")
	mmsc := flag.String("mmsc", "", "MMSC URL")
	imsi := flag.String("imsi", "000000000000000", "IMSI to report on the local bearer")
	atticRetention := flag.Duration("attic-retention", 7*24*time.Hour, "how long attic entries survive a sweep")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(
		config.WithRootDir(*root),
		config.WithAtticRetention(*atticRetention),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmsd: %v\n", err)
		os.Exit(1)
	}

	h := &loggingHandler{log: log.With("handler")}
	cm := &localConnMan{imsi: *imsi, mmscURL: *mmsc}

	d := dispatcher.New(log, cm, cfg.NetworkIdle, nil)
	go d.Run()
	defer d.Stop()

	sweeper := housekeeping.New(log, cfg.RootDir, cfg.AtticRetention, cfg.KeepTempFiles, nil)
	if err := sweeper.Start("17 3 * * *"); err != nil {
		log.Warn("housekeeping schedule rejected: %v", err)
	}
	defer sweeper.Stop()

	log.Info("mmsd ready: root=%s imsi=%s handler-busy=%v", cfg.RootDir, *imsi, h.Busy())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
}

// runSend is the mms-send-equivalent subcommand: it builds one
// OutgoingMessage, runs it through an Encode task on a standalone
// dispatcher, and exits once the Handler reports a terminal send
// state. Useful for scripting a single message without standing up
// the daemon.
func runSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	root := fs.String("root", "/var/lib/mmsd", "state directory (msg/, attic/)")
	mmsc := fs.String("mmsc", "", "MMSC URL")
	imsi := fs.String("imsi", "000000000000000", "IMSI to send from")
	to := fs.String("to", "", "comma-separated recipient list")
	subject := fs.String("subject", "", "message subject")
	text := fs.String("text", "", "plain-text body")
	attach := fs.String("attach", "", "comma-separated attachment file paths")
	deliveryReport := fs.Bool("delivery-report", false, "request a delivery report")
	fs.Parse(args)

	if *to == "" {
		fmt.Fprintln(os.Stderr, "mmsd send: -to is required")
		os.Exit(1)
	}

	log := logger.New()
	cfg, err := config.Load(config.WithRootDir(*root))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmsd send: %v\n", err)
		os.Exit(1)
	}

	id := uuid.NewString()
	msgDir := filepath.Join(cfg.RootDir, "msg", id)
	if err := os.MkdirAll(filepath.Join(msgDir, "parts"), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mmsd send: %v\n", err)
		os.Exit(1)
	}
	if *text != "" {
		textPath := filepath.Join(msgDir, "parts", "body.txt")
		if err := os.WriteFile(textPath, []byte(*text), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "mmsd send: %v\n", err)
			os.Exit(1)
		}
		*attach = strings.TrimLeft(textPath+","+*attach, ",")
	}

	var inputs []attachment.Input
	for _, p := range strings.Split(*attach, ",") {
		if p == "" {
			continue
		}
		inputs = append(inputs, attachment.Input{Path: p})
	}

	done := make(chan struct{})
	h := &cliSendHandler{log: log.With("handler"), done: done}
	cm := &localConnMan{imsi: *imsi, mmscURL: *mmsc}

	d := dispatcher.New(log, cm, cfg.NetworkIdle, nil)
	go d.Run()
	defer d.Stop()

	base := task.NewBase("encode", *imsi, task.PriorityNormal, time.Now().Add(task.DefaultMaxLifetime), 5*time.Second, d)
	base.SetID(id)
	enc := task.NewEncode(base, log, h, msgDir, task.OutgoingMessage{
		To:              strings.Split(*to, ","),
		Subject:         *subject,
		Attachments:     inputs,
		RequestDelivery: *deliveryReport,
	})
	d.Queue(enc)

	<-done
}

// cliSendHandler is a one-shot store.Handler that signals done once the
// submitted message reaches a terminal send state; it never receives
// anything, since the send subcommand only exercises the outbound path.
type cliSendHandler struct {
	log  logger.Logger
	done chan struct{}
}

func (h *cliSendHandler) MessageNotify(imsi, from, subject string, expiry time.Time, pushBytes []byte) (string, error) {
	return "", nil
}
func (h *cliSendHandler) MessageReceived(msg *mms.Message) error { return nil }
func (h *cliSendHandler) MessageReceiveStateChanged(id string, state store.ReceiveState) {}
func (h *cliSendHandler) MessageSendStateChanged(id string, state store.SendState, details string) {
	h.log.Info("send-state %s -> %s %s", id, state, details)
	switch state {
	case store.Sent, store.Refused, store.SendError, store.TooBig:
		close(h.done)
	}
}
func (h *cliSendHandler) MessageSent(id, msgid string) {
	h.log.Info("sent %s as %s", id, msgid)
	close(h.done)
}
func (h *cliSendHandler) DeliveryReport(imsi, msgid, recipient string, status store.ReportStatus) {}
func (h *cliSendHandler) ReadReport(imsi, msgid, recipient string, status store.ReportStatus)     {}
func (h *cliSendHandler) Busy() bool { return false }

type loggingHandler struct{ log logger.Logger }

func (h *loggingHandler) MessageNotify(imsi, from, subject string, expiry time.Time, pushBytes []byte) (string, error) {
	h.log.Info("notify imsi=%s from=%s subject=%q", imsi, from, subject)
	return "", nil // defer: this demo handler never auto-downloads
}
func (h *loggingHandler) MessageReceived(msg *mms.Message) error {
	h.log.Info("received message %s with %d parts", msg.MessageID, len(msg.Parts))
	return nil
}
func (h *loggingHandler) MessageReceiveStateChanged(id string, state store.ReceiveState) {
	h.log.Debug("receive-state %s -> %s", id, state)
}
func (h *loggingHandler) MessageSendStateChanged(id string, state store.SendState, details string) {
	h.log.Debug("send-state %s -> %s (%s)", id, state, details)
}
func (h *loggingHandler) MessageSent(id, msgid string) {
	h.log.Info("sent %s as %s", id, msgid)
}
func (h *loggingHandler) DeliveryReport(imsi, msgid, recipient string, status store.ReportStatus) {
	h.log.Info("delivery report %s/%s -> %s", msgid, recipient, status)
}
func (h *loggingHandler) ReadReport(imsi, msgid, recipient string, status store.ReportStatus) {
	h.log.Info("read report %s/%s -> %s", msgid, recipient, status)
}
func (h *loggingHandler) Busy() bool { return false }

// localConnMan opens a single always-on Connection bound to the host's
// default outbound interface, for exercising the dispatcher without a
// real modem stack.
type localConnMan struct {
	imsi    string
	mmscURL string
}

func (m *localConnMan) DefaultIMSI() string { return m.imsi }

func (m *localConnMan) OpenConnection(imsi string, kind connman.Kind) (connman.Connection, error) {
	netif, err := defaultInterfaceName()
	if err != nil {
		return nil, err
	}
	return &localConnection{imsi: imsi, mmscURL: m.mmscURL, netif: netif}, nil
}

func (m *localConnMan) Busy() bool { return false }

type localConnection struct {
	imsi, mmscURL, netif string
}

func (c *localConnection) IMSI() string          { return c.imsi }
func (c *localConnection) MMSCURL() string        { return c.mmscURL }
func (c *localConnection) ProxyHostPort() string  { return "" }
func (c *localConnection) NetIf() string          { return c.netif }
func (c *localConnection) State() connman.ConnectionState { return connman.Open }
func (c *localConnection) Close()                 {}

func defaultInterfaceName() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		return iface.Name, nil
	}
	return "", fmt.Errorf("mmsd: no usable network interface found")
}
