// Package session runs the kiosk's coordination loop. One goroutine owns the
// recognition queue, the presenter, the frame throttle, and the status
// reconciler; push messages, scheduler ticks, and user commands are all
// serialized through it, so the components themselves need no locking.
package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"kiosk/internal/apiclient"
	"kiosk/internal/metrics"
	"kiosk/internal/push"
	"kiosk/internal/recognition"
	"kiosk/internal/render"
	"kiosk/internal/status"
	"kiosk/internal/throttle"
)

// ErrNotRunning is returned by commands that need an active session.
var ErrNotRunning = errors.New("session: not running")

// Snapshot is a point-in-time view of the session for the admin API.
type Snapshot struct {
	Running       bool     `json:"running"`
	SessionID     string   `json:"session_id,omitempty"`
	QueueDepth    int      `json:"queue_depth"`
	Phase         string   `json:"phase"`
	Status        string   `json:"status,omitempty"`
	AttendedDates []string `json:"attended_dates,omitempty"`
}

// Controller wires the core components together and owns their state.
type Controller struct {
	channel    push.Channel
	api        *apiclient.Client
	queue      *recognition.Queue
	presenter  *recognition.Presenter
	throttle   *throttle.Throttle
	reconciler *status.Reconciler
	userList   render.UserList
	metrics    *metrics.Metrics

	tick time.Duration
	now  func() time.Time
	cmds chan command

	running   bool
	sessionID string
}

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
	cmdDismiss
	cmdSnapshot
)

type command struct {
	kind  cmdKind
	reply chan result
}

type result struct {
	snap Snapshot
	err  error
}

// Config collects the controller's collaborators.
type Config struct {
	Channel    push.Channel
	API        *apiclient.Client
	Queue      *recognition.Queue
	Presenter  *recognition.Presenter
	Throttle   *throttle.Throttle
	Reconciler *status.Reconciler
	UserList   render.UserList
	Metrics    *metrics.Metrics
	Tick       time.Duration
}

// NewController creates a controller. Run must be called before commands.
func NewController(cfg Config) *Controller {
	tick := cfg.Tick
	if tick <= 0 {
		tick = 33 * time.Millisecond
	}
	userList := cfg.UserList
	if userList == nil {
		userList = render.LogUserList{}
	}
	return &Controller{
		channel:    cfg.Channel,
		api:        cfg.API,
		queue:      cfg.Queue,
		presenter:  cfg.Presenter,
		throttle:   cfg.Throttle,
		reconciler: cfg.Reconciler,
		userList:   userList,
		metrics:    cfg.Metrics,
		tick:       tick,
		now:        time.Now,
		cmds:       make(chan command),
	}
}

// Run drives the loop until ctx is done. Callbacks never overlap: each tick,
// inbound message, and command runs to completion before the next.
func (c *Controller) Run(ctx context.Context) error {
	msgs, err := c.channel.Consume(ctx)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			c.onTick(ctx, now)
		case msg, ok := <-msgs:
			if !ok {
				// Channel gone. Keep ticking; publishes will fail and be
				// logged by the throttle until the process is restarted.
				log.Println("session: push channel closed")
				msgs = nil
				continue
			}
			c.onMessage(msg, c.now())
		case cmd := <-c.cmds:
			cmd.reply <- c.onCommand(ctx, cmd.kind)
		}
	}
}

// Start begins an attendance session, resetting all coordination state.
func (c *Controller) Start(ctx context.Context) error {
	_, err := c.send(ctx, cmdStart)
	return err
}

// Stop ends the session and clears queue, throttle, and indicator state.
func (c *Controller) Stop(ctx context.Context) error {
	_, err := c.send(ctx, cmdStop)
	return err
}

// Dismiss reports the user closing the detail view.
func (c *Controller) Dismiss(ctx context.Context) error {
	_, err := c.send(ctx, cmdDismiss)
	return err
}

// Snapshot reports current session state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	return c.send(ctx, cmdSnapshot)
}

func (c *Controller) send(ctx context.Context, kind cmdKind) (Snapshot, error) {
	cmd := command{kind: kind, reply: make(chan result, 1)}
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case res := <-cmd.reply:
		return res.snap, res.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (c *Controller) onTick(ctx context.Context, now time.Time) {
	if !c.running {
		return
	}
	c.throttle.OnTick(ctx, now)
	c.presenter.Tick(now)
	c.reconciler.Tick(now)
}

func (c *Controller) onMessage(msg push.Message, now time.Time) {
	if !c.running {
		return
	}
	switch msg.Type {
	case push.TypeUserRecognized:
		ev, err := recognition.DecodeEvent(msg.Data)
		if err != nil {
			log.Printf("session: bad recognition event: %v", err)
			return
		}
		admitted, reason := c.queue.Admit(ev, now)
		if !admitted {
			c.metrics.EventRejected(reason)
			return
		}
		c.metrics.EventAccepted()
		if c.queue.Len() == 1 {
			c.presenter.Poke(now)
			c.metrics.Presented()
		}
	case push.TypeRecognitionStatus:
		u, err := status.DecodeUpdate(msg.Data)
		if err != nil {
			log.Printf("session: bad status update: %v", err)
			return
		}
		c.reconciler.OnStatus(u, now)
		c.metrics.StatusApplied(u.Status)
	default:
		log.Printf("session: ignoring message type %q", msg.Type)
	}
}

func (c *Controller) onCommand(ctx context.Context, kind cmdKind) result {
	now := c.now()
	switch kind {
	case cmdStart:
		if c.api != nil {
			if err := c.api.StartAttendance(ctx); err != nil {
				return result{err: err}
			}
		}
		c.reset()
		c.running = true
		c.sessionID = uuid.NewString()
		log.Printf("session %s started", c.sessionID)
		c.refreshUserList(ctx)
		return result{}

	case cmdStop:
		var err error
		if c.api != nil {
			err = c.api.StopAttendance(ctx)
		}
		c.reset()
		c.running = false
		log.Printf("session %s stopped", c.sessionID)
		c.sessionID = ""
		return result{err: err}

	case cmdDismiss:
		if !c.running {
			return result{err: ErrNotRunning}
		}
		c.presenter.Dismiss(now)
		if c.presenter.CurrentPhase() == recognition.PhaseAnnouncing {
			c.metrics.Presented()
		}
		return result{}

	case cmdSnapshot:
		return result{snap: Snapshot{
			Running:       c.running,
			SessionID:     c.sessionID,
			QueueDepth:    c.queue.Len(),
			Phase:         c.presenter.CurrentPhase().String(),
			Status:        c.reconciler.Current(),
			AttendedDates: c.presenter.AttendedDates(),
		}}
	}
	return result{err: errors.New("session: unknown command")}
}

// reset clears all three owned state objects. Session start/stop is the only
// path that touches them from outside their components.
func (c *Controller) reset() {
	c.queue.Reset()
	c.presenter.Reset()
	c.throttle.Reset()
	c.reconciler.Reset()
}

func (c *Controller) refreshUserList(ctx context.Context) {
	if c.api == nil {
		return
	}
	users, err := c.api.Users(ctx)
	if err != nil {
		log.Printf("session: user list fetch failed: %v", err)
		return
	}
	rows := make([]render.UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, render.UserRow{Name: u.Name, RollNumber: u.RollNumber})
	}
	c.userList.RenderUsers(rows)
}
