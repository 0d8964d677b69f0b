// Package status carries provisioning progress from the azure steps to the CLI.
// Updates travel on a channel stored in the context so step code never depends on
// how (or whether) progress is displayed.
package status

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultChannelSize is the buffer size of the channel created by StartHandler
	DefaultChannelSize = 100

	// DefaultFlushTimeout bounds how long cleanup waits for the handler to drain
	DefaultFlushTimeout = 5 * time.Second
)

// Level is the severity of an update
type Level string

const (
	LevelInfo     Level = "info"
	LevelProgress Level = "progress"
	LevelSuccess  Level = "success"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
)

// Update is one progress message about an Azure resource.
type Update struct {
	Level   Level
	Message string

	// Kind is the resource kind, e.g. "resource-group", "vnet", "subnet", "aks-cluster"
	Kind string

	// Name is the Azure name of the resource
	Name string

	// Action is what happened or is happening: "exists", "creating", "created", "peering"
	Action string

	Fields    map[string]any
	Timestamp time.Time
}

// NewUpdate creates an Update stamped with the current time.
func NewUpdate(level Level, message string) Update {
	return Update{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// ForResource sets the resource kind and name.
func (u Update) ForResource(kind, name string) Update {
	u.Kind = kind
	u.Name = name
	return u
}

// WithAction sets the action.
func (u Update) WithAction(action string) Update {
	u.Action = action
	return u
}

// WithField adds a structured field. The map is copied so updates built from a
// shared base never alias each other.
func (u Update) WithField(key string, value any) Update {
	fields := make(map[string]any, len(u.Fields)+1)
	for k, v := range u.Fields {
		fields[k] = v
	}
	fields[key] = value
	u.Fields = fields
	return u
}

// Send delivers an update to the channel in ctx, if any. It never blocks: when the
// channel is full the update is dropped.
func Send(ctx context.Context, update Update) {
	ch := getChannel(ctx)
	if ch == nil {
		return
	}

	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	select {
	case ch <- update:
	default:
	}
}

// Handler processes updates received from the channel
type Handler func(Update)

// CleanupFunc closes the channel and waits for the handler to drain it
type CleanupFunc func()

// StartHandler attaches a buffered channel to ctx and processes updates with handler
// on a separate goroutine. The returned cleanup must be deferred.
func StartHandler(ctx context.Context, handler Handler) (context.Context, CleanupFunc) {
	return StartHandlerWithOptions(ctx, handler, DefaultChannelSize, DefaultFlushTimeout)
}

// StartHandlerWithOptions is StartHandler with an explicit channel size and flush timeout.
func StartHandlerWithOptions(ctx context.Context, handler Handler, channelSize int, flushTimeout time.Duration) (context.Context, CleanupFunc) {
	ch := make(chan Update, channelSize)
	ctx = WithChannel(ctx, ch)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range ch {
			handler(update)
		}
	}()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			close(ch)

			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(flushTimeout):
			}
		})
	}

	return ctx, cleanup
}
