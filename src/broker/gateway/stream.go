package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

func (c *Client) streamURL() string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/stream"
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	return u.String()
}

func (c *Client) startStream() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopStream != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.stopStream = cancel
	c.streamClosed = make(chan struct{})

	go c.runStream(ctx, c.streamClosed)
}

// stopStreaming cancels the push stream and waits for the reader to exit.
func (c *Client) stopStreaming() {
	c.mu.Lock()
	cancel, closed := c.stopStream, c.streamClosed
	c.stopStream, c.streamClosed = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-closed
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Add("Authorization", fmt.Sprintf("Bearer %s", c.bearer()))

	conn, _, err := c.dialer.DialContext(ctx, c.streamURL(), header)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to dial stream: %w", err)
	}

	if conn == nil {
		return nil, fmt.Errorf("gateway: failed to connect to stream: connection is nil")
	}

	return conn, nil
}

// runStream keeps one stream connection open until ctx is cancelled,
// reconnecting after a fixed pause when the bridge drops it.
func (c *Client) runStream(ctx context.Context, closed chan struct{}) {
	defer close(closed)

	for {
		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warnf("gateway: %v", err)
		} else {
			log.Infof("gateway: connected to %s", c.streamURL())
			c.readStream(ctx, conn)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectPause):
		}
	}
}

func (c *Client) readStream(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer conn.Close()

	for {
		var msg streamMessageDTO
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				log.Errorf("gateway: stream read failed: %v", err)
			}
			return
		}

		if err := c.handleStreamMessage(msg); err != nil {
			log.Errorf("gateway: %v", err)
		}
	}
}

func (c *Client) handleStreamMessage(msg streamMessageDTO) error {
	c.cbMu.RLock()
	onTick, onBidAsk, onQuote, onOrder := c.onTick, c.onBidAsk, c.onQuote, c.onOrder
	c.cbMu.RUnlock()

	switch msg.Type {
	case streamTypeTick:
		var tick eventmodels.Tick
		if err := json.Unmarshal(msg.Data, &tick); err != nil {
			return fmt.Errorf("failed to decode tick: %w", err)
		}

		if onTick != nil {
			onTick(msg.Exchange, &tick)
		}
	case streamTypeBidAsk:
		var bidask eventmodels.BidAsk
		if err := json.Unmarshal(msg.Data, &bidask); err != nil {
			return fmt.Errorf("failed to decode bidask: %w", err)
		}

		if onBidAsk != nil {
			onBidAsk(msg.Exchange, &bidask)
		}
	case streamTypeQuote:
		var quote eventmodels.Quote
		if err := json.Unmarshal(msg.Data, &quote); err != nil {
			return fmt.Errorf("failed to decode quote: %w", err)
		}

		if onQuote != nil {
			onQuote(msg.Exchange, &quote)
		}
	case streamTypeOrder:
		var trade eventmodels.Trade
		if err := json.Unmarshal(msg.Data, &trade); err != nil {
			return fmt.Errorf("failed to decode order update: %w", err)
		}

		if onOrder != nil {
			onOrder(&trade)
		}
	default:
		log.Debugf("gateway: ignoring stream message of type %q", msg.Type)
	}

	return nil
}
