// Package boardpost is the adapter for BoardPost, a classifieds board with
// no public API. Publishing drives the posting form in a headless browser;
// inbound messages are scraped from the account mailbox page. Credentials
// are username/password secrets.
package boardpost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/platform"
)

const PlatformName = "boardpost"

const defaultNavTimeout = 30 * time.Second

type Config struct {
	BaseURL string
	// NoSandbox runs Chrome without the sandbox, required in containers.
	NoSandbox bool
	// RemoteURL points at a remote Chrome instance; empty launches one.
	RemoteURL string
	Timeout   time.Duration
}

type Adapter struct {
	cfg         Config
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultNavTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Adapter{cfg: cfg, logger: logger}

	if cfg.RemoteURL != "" {
		a.allocCtx, a.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return a
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	a.allocCtx, a.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return a
}

func (a *Adapter) Close() {
	if a.allocCancel != nil {
		a.allocCancel()
	}
}

func (a *Adapter) Platform() string {
	return PlatformName
}

func (a *Adapter) Publish(ctx context.Context, cred *entity.Credential, listing *entity.Listing) (platform.PublishResult, error) {
	var remoteID, postURL string

	err := a.withSession(ctx, cred, func(tabCtx context.Context) error {
		if err := chromedp.Run(tabCtx,
			chromedp.Navigate(a.cfg.BaseURL+"/post"),
			chromedp.WaitVisible(`#post-form`, chromedp.ByID),
			chromedp.SendKeys(`#post-title`, listing.Title, chromedp.ByID),
			chromedp.SendKeys(`#post-body`, listing.Description, chromedp.ByID),
			chromedp.SendKeys(`#post-price`, strconv.FormatFloat(listing.Price, 'f', 2, 64), chromedp.ByID),
			chromedp.SetValue(`#post-category`, listing.Category, chromedp.ByID),
			chromedp.Click(`#post-submit`, chromedp.ByID),
			chromedp.WaitVisible(`#post-confirmation`, chromedp.ByID),
			chromedp.AttributeValue(`#post-confirmation`, "data-post-id", &remoteID, nil, chromedp.ByID),
			chromedp.Location(&postURL),
		); err != nil {
			return err
		}
		if remoteID == "" {
			return &platform.RejectedError{Reason: "no confirmation id on posting page"}
		}
		return nil
	})
	if err != nil {
		return platform.PublishResult{}, err
	}
	return platform.PublishResult{RemoteID: remoteID, URL: postURL}, nil
}

func (a *Adapter) Update(ctx context.Context, cred *entity.Credential, remoteID string, listing *entity.Listing) error {
	return a.withSession(ctx, cred, func(tabCtx context.Context) error {
		return chromedp.Run(tabCtx,
			chromedp.Navigate(fmt.Sprintf("%s/manage/%s/edit", a.cfg.BaseURL, remoteID)),
			chromedp.WaitVisible(`#post-form`, chromedp.ByID),
			chromedp.SetValue(`#post-title`, listing.Title, chromedp.ByID),
			chromedp.SetValue(`#post-body`, listing.Description, chromedp.ByID),
			chromedp.SetValue(`#post-price`, strconv.FormatFloat(listing.Price, 'f', 2, 64), chromedp.ByID),
			chromedp.Click(`#post-submit`, chromedp.ByID),
			chromedp.WaitVisible(`#post-confirmation`, chromedp.ByID),
		)
	})
}

func (a *Adapter) Remove(ctx context.Context, cred *entity.Credential, remoteID string) error {
	err := a.withSession(ctx, cred, func(tabCtx context.Context) error {
		var pageText string
		if err := chromedp.Run(tabCtx,
			chromedp.Navigate(fmt.Sprintf("%s/manage/%s", a.cfg.BaseURL, remoteID)),
			chromedp.Text(`body`, &pageText, chromedp.ByQuery),
		); err != nil {
			return err
		}
		// An already-removed post renders a gone page; treat it as done.
		if strings.Contains(pageText, "This posting has been deleted") ||
			strings.Contains(pageText, "Posting not found") {
			return nil
		}
		return chromedp.Run(tabCtx,
			chromedp.Click(`#post-delete`, chromedp.ByID),
			chromedp.WaitVisible(`#delete-confirmation`, chromedp.ByID),
		)
	})
	return err
}

// FetchMessagesSince scrapes the mailbox page. The cursor is the unix
// timestamp of the newest message seen so far.
func (a *Adapter) FetchMessagesSince(ctx context.Context, cred *entity.Credential, cursor string) ([]platform.Notification, string, error) {
	since := int64(0)
	if cursor != "" {
		parsed, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("bad boardpost cursor %q: %w", cursor, err)
		}
		since = parsed
	}

	var rawJSON string
	err := a.withSession(ctx, cred, func(tabCtx context.Context) error {
		return chromedp.Run(tabCtx,
			chromedp.Navigate(a.cfg.BaseURL+"/account/mailbox"),
			chromedp.WaitVisible(`#mailbox`, chromedp.ByID),
			chromedp.Evaluate(mailboxExtractJS, &rawJSON),
		)
	})
	if err != nil {
		return nil, "", err
	}

	var rows []mailboxRow
	if err := json.Unmarshal([]byte(rawJSON), &rows); err != nil {
		return nil, "", fmt.Errorf("parse mailbox extract: %w", err)
	}

	next := since
	var notifications []platform.Notification
	for _, row := range rows {
		if row.SentAtUnix <= since {
			continue
		}
		if row.SentAtUnix > next {
			next = row.SentAtUnix
		}
		notifications = append(notifications, platform.Notification{
			"platform_message_id": row.ThreadID,
			"listing_remote_id":   row.PostID,
			"sender_name":         row.From,
			"sender_email":        row.ReplyTo,
			"message_text":        row.Body,
			"received_at":         time.Unix(row.SentAtUnix, 0).UTC().Format(time.RFC3339),
		})
	}
	return notifications, strconv.FormatInt(next, 10), nil
}

type mailboxRow struct {
	ThreadID   string `json:"thread_id"`
	PostID     string `json:"post_id"`
	From       string `json:"from"`
	ReplyTo    string `json:"reply_to"`
	Body       string `json:"body"`
	SentAtUnix int64  `json:"sent_at"`
}

// mailboxExtractJS serializes the mailbox rows into JSON inside the page, so
// one Evaluate round-trip fetches everything.
const mailboxExtractJS = `JSON.stringify(Array.from(document.querySelectorAll('#mailbox .thread')).map(el => ({
	thread_id: el.dataset.threadId || '',
	post_id: el.dataset.postId || '',
	from: (el.querySelector('.from') || {}).textContent || '',
	reply_to: el.dataset.replyTo || '',
	body: (el.querySelector('.body') || {}).textContent || '',
	sent_at: parseInt(el.dataset.sentAt || '0', 10)
})))`

// withSession opens a fresh tab, logs in with the secret credential and runs
// fn against it. Login failure means the stored password no longer works.
func (a *Adapter) withSession(ctx context.Context, cred *entity.Credential, fn func(context.Context) error) error {
	var secret entity.SecretPayload
	if err := json.Unmarshal(cred.Payload, &secret); err != nil {
		return fmt.Errorf("decode secret payload: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(a.allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, a.cfg.Timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the tab.
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-tabCtx.Done():
		}
	}()

	var loggedIn bool
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(a.cfg.BaseURL+"/login"),
		chromedp.WaitVisible(`#login-form`, chromedp.ByID),
		chromedp.SendKeys(`#login-email`, secret.Username, chromedp.ByID),
		chromedp.SendKeys(`#login-password`, secret.Password, chromedp.ByID),
		chromedp.Click(`#login-submit`, chromedp.ByID),
		chromedp.Evaluate(`document.querySelector('#login-error') === null`, &loggedIn),
	)
	if err != nil {
		return classify(ctx, err)
	}
	if !loggedIn {
		a.logger.Warn("boardpost login rejected", zap.String("owner_id", cred.OwnerID))
		return platform.ErrAuthExpired
	}

	return classify(ctx, fn(tabCtx))
}

// classify maps browser failures onto the platform taxonomy: a dead or slow
// page is transient, caller cancellation passes through.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, ok := platform.IsRejected(err); ok {
		return err
	}
	if errors.Is(err, platform.ErrAuthExpired) {
		return err
	}
	return platform.Transient(err)
}
