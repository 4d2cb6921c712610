// Package betpawa drives the Betpawa website in a headless Chrome (chromedp) and
// implements replication.Surface on top of it.
package betpawa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/Vodeneev/slipconv/internal/converter/replication"
	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/metrics"
)

// Launcher opens browser sessions. At most cfg.MaxSessions run at once.
type Launcher struct {
	cfg     config.TargetConfig
	slots   chan struct{}
	metrics *metrics.Recorder
	logger  *slog.Logger
}

func NewLauncher(cfg config.TargetConfig, rec *metrics.Recorder, logger *slog.Logger) *Launcher {
	n := cfg.MaxSessions
	if n <= 0 {
		n = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{cfg: cfg, slots: make(chan struct{}, n), metrics: rec, logger: logger}
}

// Open starts a dedicated Chrome, navigates to the base page and returns the
// session with its close function. The close function must be called on every path.
func (l *Launcher) Open(ctx context.Context) (*Session, func(), error) {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("wait for browser slot: %w", ctx.Err())
	}

	chromeDir, err := os.MkdirTemp("", "slipconv_chrome_")
	if err != nil {
		<-l.slots
		return nil, nil, fmt.Errorf("create chrome temp dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserDataDir(chromeDir),
		chromedp.UserAgent(l.cfg.UserAgent),
	)

	// The browser lives until close is called, not until ctx ends.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		l.logger.Debug("chromedp", "message", fmt.Sprintf(format, v...))
	}))

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			cancelBrowser()
			cancelAlloc()
			os.RemoveAll(chromeDir)
			l.metrics.SessionClosed()
			<-l.slots
		})
	}
	l.metrics.SessionOpened()

	s := &Session{ctx: browserCtx, logger: l.logger}

	// First Run allocates the browser on browserCtx itself.
	if err := chromedp.Run(browserCtx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%w: start chrome: %v", replication.ErrSessionLost, err)
	}
	navCtx, cancel := context.WithTimeout(ctx, l.cfg.StartupWait)
	defer cancel()
	if err := s.run(navCtx,
		chromedp.Navigate(l.cfg.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%w: navigate to %s: %v", replication.ErrSessionLost, l.cfg.BaseURL, err)
	}

	l.logger.Info("Browser session opened", "url", l.cfg.BaseURL, "headless", l.cfg.Headless)
	return s, closeFn, nil
}

// OpenSurface is Open typed for callers that only need the replication surface.
func (l *Launcher) OpenSurface(ctx context.Context) (replication.Surface, func(), error) {
	s, closeFn, err := l.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, closeFn, nil
}

// Session is one browser tab owned by a single conversion run. Not safe for concurrent use.
type Session struct {
	ctx    context.Context
	logger *slog.Logger

	buttons []*cdp.Node
}

var _ replication.Surface = (*Session)(nil)

// run executes actions on the tab, bounded by ctx's deadline and cancellation.
// Errors after the browser itself went away are reported as session loss.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && s.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", replication.ErrSessionLost, err)
	}
	return err
}

func (s *Session) OpenSearch(ctx context.Context) error {
	return s.run(ctx,
		chromedp.WaitVisible(searchIconSel, chromedp.ByQuery),
		chromedp.Click(searchIconSel, chromedp.ByQuery),
		chromedp.WaitVisible(searchInputSel, chromedp.ByQuery),
	)
}

func (s *Session) SubmitQuery(ctx context.Context, query string) error {
	return s.run(ctx,
		chromedp.Clear(searchInputSel, chromedp.ByQuery),
		chromedp.SendKeys(searchInputSel, query+kb.Enter, chromedp.ByQuery),
	)
}

func (s *Session) LocateOffering(ctx context.Context, home, away string) error {
	xp := offeringXPath(home, away)
	return s.run(ctx,
		chromedp.WaitVisible(xp, chromedp.BySearch),
		chromedp.Click(xp, chromedp.BySearch),
	)
}

func (s *Session) SelectionButtons(ctx context.Context, marketLabel string) ([]string, error) {
	s.buttons = nil
	var nodes []*cdp.Node
	err := s.run(ctx,
		chromedp.WaitVisible(marketXPath(marketLabel), chromedp.BySearch),
		chromedp.Nodes(buttonsXPath(marketLabel), &nodes, chromedp.BySearch, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		var txt string
		if err := s.run(ctx, chromedp.TextContent([]cdp.NodeID{n.NodeID}, &txt, chromedp.ByNodeID)); err != nil {
			return nil, fmt.Errorf("read button text: %w", err)
		}
		texts = append(texts, strings.Join(strings.Fields(txt), " "))
	}
	s.buttons = nodes
	return texts, nil
}

var errNoSuchButton = errors.New("button index out of range")

func (s *Session) ClickSelection(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.buttons) {
		return fmt.Errorf("%w: %d of %d", errNoSuchButton, index, len(s.buttons))
	}
	node := s.buttons[index]
	s.logger.Debug("Clicking selection", "index", index, "node", node.NodeID)
	return s.run(ctx,
		chromedp.ScrollIntoView([]cdp.NodeID{node.NodeID}, chromedp.ByNodeID),
		chromedp.MouseClickNode(node),
	)
}

func (s *Session) AwaitSlipUpdate(ctx context.Context) error {
	return s.run(ctx, chromedp.WaitVisible(filledSlipSel, chromedp.ByQuery))
}

func (s *Session) RevealCode(ctx context.Context) (string, error) {
	var code string
	err := s.run(ctx,
		chromedp.WaitVisible(bookingLinkXP, chromedp.BySearch),
		chromedp.Click(bookingLinkXP, chromedp.BySearch),
		chromedp.WaitVisible(bookingCodeXP, chromedp.BySearch),
		chromedp.Text(bookingCodeXP, &code, chromedp.BySearch),
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}
